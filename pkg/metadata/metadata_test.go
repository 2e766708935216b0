package metadata_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/profiler/pkg/dom"
	"github.com/dmitrymomot/profiler/pkg/metadata"
	"github.com/dmitrymomot/profiler/pkg/signal"
)

func TestParse(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		content string
		want    []signal.DataPoint
	}{
		{
			name:    "weight and bare name",
			content: "sports:5,music",
			want:    []signal.DataPoint{signal.Weighted("sports", 5), {Name: "music"}},
		},
		{
			name:    "whitespace",
			content: "  sports : 5 ,  music  ",
			want:    []signal.DataPoint{signal.Weighted("sports", 5), {Name: "music"}},
		},
		{
			name:    "negative weight",
			content: "spam:-2",
			want:    []signal.DataPoint{signal.Weighted("spam", -2)},
		},
		{
			name:    "malformed segments skipped",
			content: ":3,a:b,x:1:2,,ok:1,y:1.5",
			want:    []signal.DataPoint{signal.Weighted("ok", 1)},
		},
		{
			name:    "empty",
			content: "",
			want:    nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, metadata.Parse(tt.content))
		})
	}
}

func TestRead(t *testing.T) {
	t.Parallel()

	doc, err := dom.ParseString(`<html><head>
		<meta name="profiler:interests" content="sports:5,music">
		<meta name="custom" content="a:1">
	</head><body></body></html>`)
	require.NoError(t, err)

	assert.Equal(t,
		[]signal.DataPoint{signal.Weighted("sports", 5), {Name: "music"}},
		metadata.Read(doc, ""),
	)
	assert.Equal(t, []signal.DataPoint{signal.Weighted("a", 1)}, metadata.Read(doc, "custom"))
	assert.Nil(t, metadata.Read(doc, "missing"))
	assert.Nil(t, metadata.Read(nil, ""))
}
