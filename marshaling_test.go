package apiclient

import (
	"encoding/json"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJSONMarshaler_Marshal(t *testing.T) {
	m := JSONMarshaler{}

	v := map[string]interface{}{"color": "red"}

	expected, err := json.Marshal(v)
	require.NoError(t, err)

	expectedIndented, err := json.MarshalIndent(v, "", "  ")
	require.NoError(t, err)

	d, ct, err := m.Marshal(v)
	require.NoError(t, err)
	require.Equal(t, "application/json; charset=UTF-8", ct)
	require.Equal(t, expected, d)

	m.Indent = true
	d, _, err = m.Marshal(v)
	require.NoError(t, err)
	require.Equal(t, expectedIndented, d)
}

func TestJSONMarshaler_Unmarshal(t *testing.T) {
	m := JSONMarshaler{}

	var v interface{}
	d := []byte(`{"color":"red"}`)
	err := m.Unmarshal(d, "", &v)
	require.NoError(t, err)

	require.Equal(t, map[string]interface{}{"color": "red"}, v)
}

type testModel struct {
	Color string `xml:"color" json:"color" url:"color"`
	Count int    `xml:"count" json:"count" url:"count"`
}

func TestXMLMarshaler_Marshal(t *testing.T) {
	m := XMLMarshaler{}

	b, ct, err := m.Marshal(testModel{"red", 30})
	require.NoError(t, err)

	assert.Equal(t, "application/xml; charset=UTF-8", ct)

	assert.Equal(t, `<testModel><color>red</color><count>30</count></testModel>`, string(b))

	m.Indent = true
	b, _, err = m.Marshal(testModel{"red", 30})
	require.NoError(t, err)

	assert.Equal(t, `<testModel>
  <color>red</color>
  <count>30</count>
</testModel>`, string(b))
}

func TestXMLMarshaler_Unmarshal(t *testing.T) {
	m := XMLMarshaler{}

	var v testModel
	data := []byte(`<testModel><color>red</color><count>30</count></testModel>`)
	err := m.Unmarshal(data, "", &v)
	require.NoError(t, err)

	assert.Equal(t, testModel{"red", 30}, v)
}

func TestMultiUnmarshaler_Unmarshal(t *testing.T) {
	m := MultiUnmarshaler{}

	cases := []struct {
		input       string
		contentType string
	}{
		{
			input:       `<testModel><color>red</color><count>30</count></testModel>`,
			contentType: `application/xml`,
		},
		{
			input:       `{"color":"red","count":30}`,
			contentType: `application/json`,
		},
		{
			input:       `{"color":"red","count":30}`,
			contentType: ``,
		},
		{
			input:       `<testModel><color>red</color><count>30</count></testModel>`,
			contentType: `text/xml; charset=utf-8`,
		},
		{
			input:       `<testModel><color>red</color><count>30</count></testModel>`,
			contentType: `application/atom+xml`,
		},
		{
			input:       `{"color":"red","count":30}`,
			contentType: `application/problem+json`,
		},
		{
			input:       `{"color":"red","count":30}`,
			contentType: `Application/JSON; charset=UTF-8`,
		},
		{
			input:       `{"color":"red","count":30}`,
			contentType: `text/plain; charset=utf-8`,
		},
	}
	for _, c := range cases {
		t.Run(c.contentType, func(t *testing.T) {
			var v testModel
			err := m.Unmarshal([]byte(c.input), c.contentType, &v)
			require.NoError(t, err)
			require.Equal(t, testModel{"red", 30}, v)
		})
	}

	t.Run("unknown", func(t *testing.T) {
		err := m.Unmarshal([]byte(`{"color":"red","count":30}`), "asdf", &testModel{})
		require.Error(t, err)

		err = m.Unmarshal([]byte(`{"color":"red","count":30}`), "application/octet-stream", &testModel{})
		require.Error(t, err)
	})
}

func TestFormMarshaler_Marshal(t *testing.T) {

	testCases := []struct {
		input  interface{}
		output string
	}{
		{
			input:  testModel{"red", 30},
			output: "color=red&count=30",
		},
		{
			input:  map[string][]string{"color": {"green", "red"}, "count": {"40"}},
			output: "color=green&color=red&count=40",
		},
		{
			input:  url.Values{"color": {"green", "red"}, "count": {"40"}},
			output: "color=green&color=red&count=40",
		},
		{
			input:  map[string]string{"color": "green", "count": "40"},
			output: "color=green&count=40",
		},
	}
	for _, testCase := range testCases {
		m := FormMarshaler{}
		d, ct, err := m.Marshal(testCase.input)

		require.NoError(t, err)
		assert.Equal(t, "application/x-www-form-urlencoded; charset=UTF-8", ct)
		assert.Equal(t, testCase.output, string(d))
	}
}

func TestMarshalFunc(t *testing.T) {
	var called bool
	c := MustNew(MarshalFunc(func(v interface{}) ([]byte, string, error) {
		called = true
		return []byte("custom"), "text/custom", nil
	}), Body(testModel{"red", 30}))

	body, err := buildBody(c.Request(), c.Configs())
	require.NoError(t, err)
	assert.True(t, called)
	assert.Equal(t, []byte("custom"), body.Data())
	assert.Equal(t, "text/custom", c.Request().Header.Get(HeaderContentType))
}

func TestUnmarshalFunc(t *testing.T) {
	c := MustNew(UnmarshalFunc(func(data []byte, _ string, v interface{}) error {
		*(v.(*string)) = "unmarshaled " + string(data)
		return nil
	}))

	s, err := Decodable[string]().Serialize([]byte("red"), c.Configs())
	require.NoError(t, err)
	assert.Equal(t, "unmarshaled red", s)
}
