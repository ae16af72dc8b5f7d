package deploy

import (
	"strings"
	"testing"
)

func TestConfigLines(t *testing.T) {
	tests := []struct {
		name     string
		template string
		want     []string
	}{
		{
			name:     "strips comments and blanks",
			template: "! banner\nhostname sw1\n\n  ntp server 10.0.0.1  \n!\n",
			want:     []string{"hostname sw1", "ntp server 10.0.0.1"},
		},
		{
			name:     "empty template",
			template: "!\n\n!\n",
			want:     nil,
		},
		{
			name:     "single line no newline",
			template: "hostname sw1",
			want:     []string{"hostname sw1"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ConfigLines(tt.template)
			if len(got) != len(tt.want) {
				t.Fatalf("ConfigLines = %v, want %v", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("line %d = %q, want %q", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestValidateTemplate(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		warnings, err := ValidateTemplate("hostname sw1\nntp server 10.0.0.1\n")
		if err != nil {
			t.Fatalf("ValidateTemplate: %v", err)
		}
		if len(warnings) != 0 {
			t.Errorf("warnings = %v, want none", warnings)
		}
	})

	t.Run("unclosed quotes", func(t *testing.T) {
		_, err := ValidateTemplate("hostname sw1\nbanner motd \"hello\n")
		if err == nil {
			t.Fatal("expected error for unclosed quotes")
		}
		if !strings.Contains(err.Error(), "unclosed quotes") {
			t.Errorf("error = %v, want unclosed quotes", err)
		}
	})

	t.Run("no effective lines", func(t *testing.T) {
		_, err := ValidateTemplate("! only comments\n\n")
		if err == nil {
			t.Fatal("expected error for empty template")
		}
	})

	t.Run("warnings", func(t *testing.T) {
		warnings, err := ValidateTemplate("ntp\tserver 10.0.0.1\n")
		if err != nil {
			t.Fatalf("ValidateTemplate: %v", err)
		}
		// Missing hostname plus the tab.
		if len(warnings) != 2 {
			t.Errorf("warnings = %v, want 2", warnings)
		}
	})
}

func TestTranscriptCap(t *testing.T) {
	tr := &transcript{}
	for i := 0; i < TranscriptCap+50; i++ {
		tr.add("line")
	}
	if len(tr.lines) != TranscriptCap {
		t.Fatalf("transcript length = %d, want %d", len(tr.lines), TranscriptCap)
	}
	if tr.lines[TranscriptCap-1] != "... transcript truncated" {
		t.Errorf("last line = %q, want truncation marker", tr.lines[TranscriptCap-1])
	}
}
