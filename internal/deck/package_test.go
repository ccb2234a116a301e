package deck

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRelativeTarget(t *testing.T) {
	assert.Equal(t, "../media/logo1.png", relativeTarget("ppt/slides/slide1.xml", "ppt/media/logo1.png"))
	assert.Equal(t, "slides/slide3.xml", relativeTarget("ppt/presentation.xml", "ppt/slides/slide3.xml"))
	assert.Equal(t, "../../media/a.png", relativeTarget("ppt/slides/sub/slide1.xml", "ppt/media/a.png"))
}

func TestResolveTarget(t *testing.T) {
	assert.Equal(t, "ppt/media/image1.png", resolveTarget("ppt/slides/slide1.xml", "../media/image1.png"))
	assert.Equal(t, "ppt/slides/slide2.xml", resolveTarget("ppt/presentation.xml", "slides/slide2.xml"))
	assert.Equal(t, "ppt/slides/slide2.xml", resolveTarget("ppt/presentation.xml", "/ppt/slides/slide2.xml"))
	assert.Equal(t, "ppt/slides/_rels/slide2.xml.rels", relsPath("ppt/slides/slide2.xml"))
}

func TestPackageRoundTrip(t *testing.T) {
	pkg, err := openPackage(starter(t, 2))
	require.NoError(t, err)

	pkg.put("ppt/media/extra.png", []byte{1, 2, 3})
	doc, err := pkg.xml(appPropsPart)
	require.NoError(t, err)
	doc.Root().SelectElement("Slides").SetText("99")

	out, err := pkg.bytes()
	require.NoError(t, err)

	again, err := openPackage(out)
	require.NoError(t, err)
	assert.Equal(t, contentTypesPart, again.order[0])
	assert.Equal(t, []byte{1, 2, 3}, again.files["ppt/media/extra.png"])

	doc, err = again.xml(appPropsPart)
	require.NoError(t, err)
	assert.Equal(t, "99", doc.Root().SelectElement("Slides").Text())

	again.remove("ppt/media/extra.png")
	assert.False(t, again.has("ppt/media/extra.png"))
	assert.NotContains(t, again.order, "ppt/media/extra.png")
}

func TestRelationshipsNextID(t *testing.T) {
	pkg, err := openPackage(starter(t, 1))
	require.NoError(t, err)

	rels, err := pkg.rels(presentationPart)
	require.NoError(t, err)
	// 母版、主题和三页幻灯片
	assert.Equal(t, "rId6", rels.add(relTypeHyperlink, "https://example.com", true))

	fresh, err := pkg.rels("ppt/media/none.xml")
	require.NoError(t, err)
	assert.Equal(t, "rId1", fresh.add(relTypeImage, "x.png", false))
}
