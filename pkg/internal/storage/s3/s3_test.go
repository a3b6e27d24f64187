package s3_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/yeisme/papervault/pkg/internal/storage/s3"
)

func TestJoinPublicURL(t *testing.T) {
	cases := []struct {
		base, key, want string
	}{
		{
			"http://localhost:9000/pdfs",
			"CSE/3/DBMS/PYQ/a.pdf",
			"http://localhost:9000/pdfs/CSE/3/DBMS/PYQ/a.pdf",
		},
		{
			"https://cdn.example.com/storage/v1/object/public/pdfs/",
			"CSE/3/Data Structures/Notes/unit 1.pdf",
			"https://cdn.example.com/storage/v1/object/public/pdfs/CSE/3/Data%20Structures/Notes/unit%201.pdf",
		},
		{
			"http://h/pdfs",
			"ECE/5/C#/CT/q?.pdf",
			"http://h/pdfs/ECE/5/C%23/CT/q%3F.pdf",
		},
	}

	for _, c := range cases {
		assert.Equal(t, c.want, s3.JoinPublicURL(c.base, c.key))
	}
}
