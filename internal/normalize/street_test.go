package normalize

import (
	"testing"
)

func TestCleanStreet(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "county road abbreviation",
			input: "1005 CR 5",
			want:  "1005 County Road 5",
		},
		{
			name:  "co rd with periods",
			input: "350 Co. Rd. 12",
			want:  "350 County Road 12",
		},
		{
			name:  "cty rd variant",
			input: "Cty Rd 18",
			want:  "County Road 18",
		},
		{
			name:  "state highway before plain highway",
			input: "2100 St Hwy 14",
			want:  "2100 State Highway 14",
		},
		{
			name:  "plain highway",
			input: "400 Hwy 50",
			want:  "400 Highway 50",
		},
		{
			name:  "us highway with number",
			input: "US 83 North",
			want:  "US Highway 83 North",
		},
		{
			name:  "rural route",
			input: "RR 2 Box 15",
			want:  "Rural Route 2 Box 15",
		},
		{
			name:  "route abbreviation",
			input: "Rte 66",
			want:  "Route 66",
		},
		{
			name:  "placeholder n/a",
			input: "n/a",
			want:  "",
		},
		{
			name:  "placeholder dash",
			input: "-",
			want:  "",
		},
		{
			name:  "whitespace collapsed",
			input: "  123   Main    St  ",
			want:  "123 Main St",
		},
		{
			name:  "empty",
			input: "",
			want:  "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CleanStreet(tt.input)
			if got != tt.want {
				t.Errorf("CleanStreet(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestLooksLikeNoStreet(t *testing.T) {
	tests := []struct {
		input string
		want  bool
	}{
		{"", true},
		{"none", true},
		{"unknown", true},
		{"Main", true},          // short, no digits
		{"123 Main St", false},  // has digits
		{"County Road 5", false},
		{"Elm Street", false},   // long enough without digits
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got := LooksLikeNoStreet(tt.input)
			if got != tt.want {
				t.Errorf("LooksLikeNoStreet(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestTitleStreet(t *testing.T) {
	tests := []struct {
		name   string
		street string
		state  string
		want   string
	}{
		{
			name:   "lower case street",
			street: "1005 county road 5",
			state:  "KS",
			want:   "1005 County Road 5",
		},
		{
			name:   "state code kept upper",
			street: "200 main st ks",
			state:  "KS",
			want:   "200 Main St KS",
		},
		{
			name:   "empty",
			street: "",
			state:  "KS",
			want:   "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := TitleStreet(tt.street, tt.state)
			if got != tt.want {
				t.Errorf("TitleStreet(%q, %q) = %q, want %q", tt.street, tt.state, got, tt.want)
			}
		})
	}
}

func TestWhitespace(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"  a  b  ", "a b"},
		{"a\t\nb", "a b"},
		{"", ""},
	}

	for _, tt := range tests {
		got := Whitespace(tt.input)
		if got != tt.want {
			t.Errorf("Whitespace(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}
