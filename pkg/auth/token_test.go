package auth

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ljdl/pkg/errors"
)

func TestExtractAuthToken(t *testing.T) {
	tests := []struct {
		name string
		page string
		want string
	}{
		{
			name: "json object on one line",
			page: `<html><head><script>Site.page = {"a":1,"auth_token":"tok-1","b":[1,2]};</script></head></html>`,
			want: "tok-1",
		},
		{
			name: "object with trailing code falls back to value pattern",
			page: `<script>init({"auth_token":"tok-2"}, function(){ return {x: 1}; });</script>`,
			want: "tok-2",
		},
		{
			name: "multi line script",
			page: "<script>\nvar x = 1;\nSite.current = {\"journal\":\"alice\",\"auth_token\":\"tok-3\"};\n</script>",
			want: "tok-3",
		},
		{
			name: "scripts with src are ignored",
			page: `<script src="/x.js?auth_token=nope"></script><script>LJ = {"auth_token": "tok-4"};</script>`,
			want: "tok-4",
		},
		{
			name: "spacing around colon",
			page: `<script>cfg = {"auth_token" : "tok-5"}</script>`,
			want: "tok-5",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			token, err := ExtractAuthToken(strings.NewReader(tt.page))
			require.NoError(t, err)
			assert.Equal(t, tt.want, token)
		})
	}
}

func TestExtractAuthTokenFailures(t *testing.T) {
	tests := []struct {
		name    string
		page    string
		message string
	}{
		{
			name:    "no scripts",
			page:    `<html><body>hello</body></html>`,
			message: "can't find any auth_token",
		},
		{
			name:    "only external script mentions token",
			page:    `<script src="/x.js?auth_token=nope"></script><script>var a = 1;</script>`,
			message: "can't find any auth_token",
		},
		{
			name:    "marker without value",
			page:    `<script>// auth_token comes later</script>`,
			message: "could not be decoded",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ExtractAuthToken(strings.NewReader(tt.page))
			require.Error(t, err)
			assert.True(t, errors.IsType(err, errors.ErrorTypeAuth))
			assert.Contains(t, err.Error(), tt.message)
		})
	}
}
