package scope

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	t.Parallel()

	tc := []struct {
		in      string
		want    []string
		wantErr bool
	}{
		{"", []string{"user"}, false},
		{"user", []string{"user"}, false},
		{"messages user messages", []string{"messages", "user"}, false},
		{"user user.email files", []string{"user", "user.email", "files"}, false},
		{"admin", nil, true},
		{"user  files", nil, true}, // empty element between double spaces
		{"USER", nil, true},
	}
	for _, tt := range tc {
		t.Run(tt.in, func(t *testing.T) {
			req := require.New(t)
			got, err := Parse(tt.in)
			if tt.wantErr {
				req.Error(err)
				return
			}
			req.NoError(err)
			req.Equal(tt.want, got)
		})
	}
}

func TestParse_DefaultIsCopy(t *testing.T) {
	t.Parallel()

	got, err := Parse("")
	require.NoError(t, err)
	got[0] = "files"
	require.Equal(t, []string{"user"}, Default)
}

func TestJoin(t *testing.T) {
	t.Parallel()
	require.Equal(t, "user files", Join([]string{"user", "files"}))
	require.Equal(t, "", Join(nil))
}
