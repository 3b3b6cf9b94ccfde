package feedparser

import (
	"crypto/md5" //nolint:gosec
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParse_Empty(t *testing.T) {
	p, err := Parse([]byte("   \n\t"))
	require.NoError(t, err)
	require.Nil(t, p)
}

func TestParse_UnknownRoot(t *testing.T) {
	_, err := Parse([]byte(`<?xml version="1.0"?><invalid-root/>`))
	require.ErrorIs(t, err, ErrUnknownFeedType)
}

func TestParse_UnknownJSONVersion(t *testing.T) {
	_, err := Parse([]byte(`{"version":"https://example.com/unknown"}`))
	require.ErrorIs(t, err, ErrUnknownFeedType)
}

func TestRSS2_GUIDSynthesis(t *testing.T) {
	body := []byte(`<?xml version="1.0"?>
<rss version="2.0"><channel><title>C</title>
<item><title>T</title><link>https://example.com/x</link></item>
</channel></rss>`)
	p, err := Parse(body)
	require.NoError(t, err)
	require.Len(t, p.Items(), 1)
	sum := md5.Sum([]byte("https://example.com/x")) //nolint:gosec
	require.Equal(t, hex.EncodeToString(sum[:]), p.Items()[0].GUID)
}

func TestRSS2_ContentEncodedPreferred(t *testing.T) {
	body := []byte(`<?xml version="1.0"?>
<rss version="2.0" xmlns:content="http://purl.org/rss/1.0/modules/content/">
<channel><title>C</title>
<item><title>T</title><description>desc</description><content:encoded>full</content:encoded></item>
</channel></rss>`)
	p, err := Parse(body)
	require.NoError(t, err)
	require.Equal(t, "full", p.Items()[0].Content)
}

func TestAtom_EnclosuresViaLinkRel(t *testing.T) {
	body := []byte(`<?xml version="1.0"?>
<feed xmlns="http://www.w3.org/2005/Atom">
<title>F</title>
<entry>
<title>E</title>
<id>1</id>
<link rel="enclosure" href="file:///dummy" length="100" type="image/jpeg"/>
<link rel="enclosure" href="file:///dummy2" length="200" type="image/png"/>
<link rel="enclosure" href="file:///dummy3" length="300" type="image/gif"/>
</entry>
</feed>`)
	p, err := Parse(body)
	require.NoError(t, err)
	items := p.Items()
	require.Len(t, items, 1)
	require.Len(t, items[0].Enclosures, 3)
	require.Equal(t, "file:///dummy", items[0].Enclosures[0].URL)
	require.Equal(t, int64(100), items[0].Enclosures[0].Size)
	require.Equal(t, "image/jpeg", items[0].Enclosures[0].Mime)
	require.Equal(t, "file:///dummy3", items[0].Enclosures[2].URL)
	require.Equal(t, "image/gif", items[0].Enclosures[2].Mime)
}

func TestJSONFeed_ContentTextEscaped(t *testing.T) {
	body := []byte(`{"version":"https://jsonfeed.org/version/1.1","title":"F","items":[
		{"id":"1","content_text":"<nohtml>"}
	]}`)
	p, err := Parse(body)
	require.NoError(t, err)
	items := p.Items()
	require.Len(t, items, 1)
	require.Equal(t, `<pre style="white-space:pre-wrap;">&lt;nohtml&gt;</pre>`, items[0].Content)
}

func TestJSONFeed_SkipsItemsWithoutID(t *testing.T) {
	body := []byte(`{"version":"https://jsonfeed.org/version/1","title":"F","items":[
		{"title":"no id"},
		{"id":"2","title":"has id"}
	]}`)
	p, err := Parse(body)
	require.NoError(t, err)
	items := p.Items()
	require.Len(t, items, 1)
	require.Equal(t, "2", items[0].GUID)
}

func TestRSS1_GUIDSynthesisAndContent(t *testing.T) {
	body := []byte(`<?xml version="1.0"?>
<rdf:RDF xmlns:rdf="http://www.w3.org/1999/02/22-rdf-syntax-ns#"
  xmlns:dc="http://purl.org/dc/elements/1.1/">
<channel><title>C</title><link>https://example.com</link></channel>
<item><title>T</title><link>https://example.com/y</link><dc:creator>Jane</dc:creator></item>
</rdf:RDF>`)
	p, err := Parse(body)
	require.NoError(t, err)
	items := p.Items()
	require.Len(t, items, 1)
	require.Equal(t, "Jane", items[0].Author)
	require.NotEmpty(t, items[0].GUID)
}
