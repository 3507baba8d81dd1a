package s3

import "testing"

func TestApplyPrefix(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		prefix string
		key    string
		want   string
	}{
		{name: "no prefix", prefix: "", key: "a1b2/novel.pdf", want: "a1b2/novel.pdf"},
		{name: "simple prefix", prefix: "documents", key: "a1b2/novel.pdf", want: "documents/a1b2/novel.pdf"},
		{name: "prefix trailing slash", prefix: "documents/", key: "a1b2/novel.pdf", want: "documents/a1b2/novel.pdf"},
		{name: "prefix and key slashes", prefix: "/documents/", key: "/a1b2/novel.pdf", want: "documents/a1b2/novel.pdf"},
		{name: "extracted text key", prefix: "documents", key: "a1b2/novel.pdf.extracted.txt", want: "documents/a1b2/novel.pdf.extracted.txt"},
		{name: "nested prefix", prefix: "prod/documents", key: "a1b2/story.docx", want: "prod/documents/a1b2/story.docx"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := applyPrefix(tt.prefix, tt.key); got != tt.want {
				t.Fatalf("applyPrefix(%q, %q) = %q, want %q", tt.prefix, tt.key, got, tt.want)
			}
		})
	}
}
