package opml

import (
	"testing"

	"github.com/stretchr/testify/require"
)

const sample = `<?xml version="1.0"?>
<opml version="1.0">
  <body>
    <outline text="News">
      <outline title="Example" xmlUrl="https://example.com/feed" htmlUrl="https://example.com"/>
    </outline>
    <outline title="Standalone" xmlUrl="https://example.org/feed"/>
  </body>
</opml>`

func TestParseCollectsNestedOutlines(t *testing.T) {
	subs, err := Parse([]byte(sample))
	require.NoError(t, err)
	require.Len(t, subs, 2)
	require.Equal(t, "Example", subs[0].Title)
	require.Equal(t, "https://example.com/feed", subs[0].XMLURL)
	require.Equal(t, "Standalone", subs[1].Title)
}

func TestParseInvalidXML(t *testing.T) {
	_, err := Parse([]byte("not xml"))
	require.Error(t, err)
}
