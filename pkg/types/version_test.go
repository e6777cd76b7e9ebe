package types

import "testing"

func TestParseVersion(t *testing.T) {
	tests := []struct {
		input string
		want  Version
	}{
		{"v71.2.13", Version{Major: 71, Minor: 2, Patch: 13}},
		{"3.2.1", Version{Major: 3, Minor: 2, Patch: 1}},
		{"4:3.2.1", Version{Epoch: 4, Major: 3, Minor: 2, Patch: 1}},
		{"1.22-1", Version{Major: 1, Minor: 22, Revision: "-1"}},
		{"10", Version{Major: 10}},
		{"5:v1.9", Version{Epoch: 5, Major: 1, Minor: 9}},
		{"9:1.51.8~20.04.1+1.4-0ubuntu0.1", Version{Epoch: 9, Major: 1, Minor: 51, Patch: 8, Revision: "~20.04.1+1.4-0ubuntu0.1"}},
		{"2:7.3.429-2ubuntu2.1", Version{Epoch: 2, Major: 7, Minor: 3, Patch: 429, Revision: "-2ubuntu2.1"}},
		{"6.1.0-0+maxmind1~focal", Version{Major: 6, Minor: 1, Revision: "-0+maxmind1~focal"}},
		{"2:102.11+LibO6.4.7-0ubuntu0.20.04.9", Version{Epoch: 2, Major: 102, Minor: 11, Revision: "+LibO6.4.7-0ubuntu0.20.04.9"}},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseVersion(tt.input)
			if err != nil {
				t.Fatalf("ParseVersion(%q) unexpected error: %v", tt.input, err)
			}
			if got != tt.want {
				t.Errorf("ParseVersion(%q) = %+v, want %+v", tt.input, got, tt.want)
			}
		})
	}
}

func TestParseVersionInvalid(t *testing.T) {
	for _, input := range []string{
		"",
		"1:-ubuntu1.0",
		"a",
		"A:1.2.3",
		"2:7.4.!052-1ubuntu3.1",
		"1.1.1.1.1.1",
	} {
		t.Run(input, func(t *testing.T) {
			if v, err := ParseVersion(input); err == nil {
				t.Errorf("ParseVersion(%q) = %+v, want error", input, v)
			}
		})
	}
}

func TestVersionCompare(t *testing.T) {
	tests := []struct {
		a, b string
		want int
	}{
		{"1.0.0", "1.0.0", 0},
		{"1.0.0", "1.0.1", -1},
		{"2.0.0", "1.9.9", 1},
		{"1:1.0.0", "2.0.0", 1},
		{"0:2.0.0", "1:1.0.0", -1},
		{"1.0.0-2", "1.0.0-1", 1},
	}
	for _, tt := range tests {
		a, err := ParseVersion(tt.a)
		if err != nil {
			t.Fatal(err)
		}
		b, err := ParseVersion(tt.b)
		if err != nil {
			t.Fatal(err)
		}
		if got := a.Compare(b); got != tt.want {
			t.Errorf("Compare(%q, %q) = %d, want %d", tt.a, tt.b, got, tt.want)
		}
	}
}
