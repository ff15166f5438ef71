package tools

import (
	"encoding/xml"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseToolCall(t *testing.T) {
	text := `running the login now
<tool>
<tool_name>afip_login</tool_name>
<arguments>
  <cuit>20-12345678-9</cuit>
  <password>secret</password>
</arguments>
</tool>`

	call, remaining, err := ParseToolCall(text)
	require.NoError(t, err)
	assert.Equal(t, "afip_login", call.ToolName)
	assert.Equal(t, "running the login now", remaining)

	var input struct {
		XMLName  xml.Name `xml:"arguments"`
		CUIT     string   `xml:"cuit"`
		Password string   `xml:"password"`
	}
	require.NoError(t, UnmarshalXMLWithFallback(call.GetArgumentsXML(), &input))
	assert.Equal(t, "20-12345678-9", input.CUIT)
	assert.Equal(t, "secret", input.Password)
}

func TestParseToolCall_NoToolCall(t *testing.T) {
	_, _, err := ParseToolCall("just some text")
	assert.Error(t, err)
}

func TestParseToolCall_MissingToolName(t *testing.T) {
	_, _, err := ParseToolCall(`<tool><arguments><x>1</x></arguments></tool>`)
	assert.Error(t, err)
}

func TestHasToolCall(t *testing.T) {
	assert.True(t, HasToolCall(`<tool><tool_name>t</tool_name></tool>`))
	assert.False(t, HasToolCall("no call here"))
}

func TestUnmarshalXMLWithFallback_BareAmpersand(t *testing.T) {
	// Passwords and URLs routinely contain bare ampersands.
	data := []byte(`<arguments><password>a&b</password></arguments>`)

	var input struct {
		XMLName  xml.Name `xml:"arguments"`
		Password string   `xml:"password"`
	}
	require.NoError(t, UnmarshalXMLWithFallback(data, &input))
	assert.Equal(t, "a&b", input.Password)
}

func TestUnmarshalXMLWithFallback_PreservesEntities(t *testing.T) {
	data := []byte(`<arguments><v>x &amp; y &lt; z</v></arguments>`)

	var input struct {
		XMLName xml.Name `xml:"arguments"`
		V       string   `xml:"v"`
	}
	require.NoError(t, UnmarshalXMLWithFallback(data, &input))
	assert.Equal(t, "x & y < z", input.V)
}
