package logging

import "testing"

func TestNew(t *testing.T) {
	cases := []struct {
		level, format string
		wantErr       bool
	}{
		{"", "", false},
		{"debug", "json", false},
		{"info", "console", false},
		{"loud", "json", true},
		{"info", "xml", true},
	}
	for _, tc := range cases {
		t.Run(tc.level+"/"+tc.format, func(t *testing.T) {
			l, err := New(tc.level, tc.format)
			if (err != nil) != tc.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tc.wantErr)
			}
			if err == nil {
				_ = l.Sync()
			}
		})
	}
}
