package http

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeInbound(t *testing.T) {
	in, err := decodeInbound([]byte(`{"type":"join_room","data":{"room":"abcd1234","username":"bob"}}`))
	require.NoError(t, err)
	assert.Equal(t, "join_room", in.Type)
	assert.JSONEq(t, `{"room":"abcd1234","username":"bob"}`, string(in.Data))

	_, err = decodeInbound([]byte(`not json`))
	assert.Error(t, err)

	_, err = decodeInbound([]byte(`{"data":{}}`))
	assert.ErrorIs(t, err, errMissingType)
}

func TestOriginPatterns(t *testing.T) {
	tests := []struct {
		name     string
		origins  []string
		patterns []string
		allowAll bool
	}{
		{"wildcard", []string{"https://a.example", "*"}, nil, true},
		{"urls", []string{"https://a.example", "http://localhost:3000"}, []string{"a.example", "localhost:3000"}, false},
		{"bare hosts", []string{"*.example.com", " "}, []string{"*.example.com"}, false},
		{"empty", nil, nil, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			patterns, allowAll := originPatterns(tt.origins)
			assert.Equal(t, tt.patterns, patterns)
			assert.Equal(t, tt.allowAll, allowAll)
		})
	}
}
