package render

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want OutputType
	}{
		{"empty", "", TypeString},
		{"whitespace only", "  \n\t ", TypeString},
		{"json object", `{"a":1}`, TypeObject},
		{"json list", `[1,2,3]`, TypeList},
		{"json scalar number", `42`, TypeString},
		{"json scalar string", `"hello"`, TypeString},
		{"json with surrounding whitespace", "\n  {\"a\": 1}\n", TypeObject},
		{"php array literal", `array(1,2,3)`, TypePHPArray},
		{"php array var_export", "array (\n  'a' => 1,\n)", TypePHPArray},
		{"php uppercase Array", `Array( 1, 2 )`, TypePHPArray},
		{"bracket list failing json", `['a', 'b']`, TypePHPArray},
		{"object dump", `object(App\User)#3 (1) ( 'name' => 'Jane' )`, TypePHPObject},
		{"set_state dump", `App\User::__set_state(array( 'name' => 'Jane', ))`, TypePHPObject},
		{"plain text", "hello", TypeString},
		{"almost json", `{"a":`, TypeString},
		{"binary garbage", "\x00\x01\x02", TypeString},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Classify(tc.in))
		})
	}
}

func TestClassify_NeverPanics(t *testing.T) {
	inputs := []string{
		"", "(", ")", "[", "]", "{", "}", "array(", "object()#",
		"object(X)#1", "::__set_state(", "\\\\", "'unterminated",
	}
	for _, in := range inputs {
		assert.NotPanics(t, func() { Classify(in) }, "input %q", in)
	}
}
