package pinyin

import "testing"

func TestConvert(t *testing.T) {
	c := NewConverter()

	tests := []struct {
		name string
		in   string
		want string
	}{
		{"Chinese", "你好", "nǐ hǎo"},
		{"Mixed", "你好 world", "nǐ hǎo world"},
		{"Punctuation", "你好，世界", "nǐ hǎo ， shì jiè"},
		{"Latin", "hello world", "hello world"},
		{"Empty", "", ""},
		{"Whitespace", "  ", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := c.Convert(tt.in); got != tt.want {
				t.Errorf("Convert(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestNilConverterPlaceholder(t *testing.T) {
	var c *Converter
	if got := c.Convert("你好"); got != Placeholder {
		t.Errorf("expected placeholder, got %q", got)
	}
}
