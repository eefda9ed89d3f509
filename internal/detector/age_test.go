package detector

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BetterCallFirewall/techscope/internal/models"
	"github.com/BetterCallFirewall/techscope/internal/page"
)

func TestCopyrightAndAge(t *testing.T) {
	p := loadPage(t, page.Snapshot{
		HTML: `<html><body><main>Lots of content here</main>
			<footer><div><p>© 2015–2024 Example Inc. All rights reserved.</p></div></footer>
			<script type="application/ld+json">{not json</script>
			<script type="application/ld+json">[{"@type":"Person"},{"@type":"WebPage","dateCreated":"2019-05-01"}]</script>
			</body></html>`,
	})

	report := newEngine().Detect(p)

	copyright, ok := report.Find(models.CategoryWhois, "Copyright")
	require.True(t, ok)
	assert.Equal(t, "© 2015–2024 Example Inc. All rights reserved.", copyright.Version)

	assert.Equal(t, []models.Finding{
		{Name: "Domain", Version: "example.com", Icon: "🌐"},
		{Name: "Page Created", Version: "5/1/2019", Icon: "📄"},
		{Name: "Estimated Age", Version: "~11 years (since 2015)", Icon: "⏳"},
	}, report.Get(models.CategoryDomainExpiration))
}

func TestAgeFromMetaWhenNoCopyright(t *testing.T) {
	p := loadPage(t, page.Snapshot{
		HTML: `<html><head><meta property="article:published_time" content="2020-02-03T10:00:00Z"></head></html>`,
	})
	age, ok := newEngine().Detect(p).Find(models.CategoryDomainExpiration, "Estimated Age")
	require.True(t, ok)
	assert.Equal(t, "~6 years (since 2020)", age.Version)
}

func TestAgeOmittedWithoutSignals(t *testing.T) {
	p := loadPage(t, page.Snapshot{HTML: `<html><body><p>hello</p></body></html>`})
	report := newEngine().Detect(p)

	_, ok := report.Find(models.CategoryDomainExpiration, "Estimated Age")
	assert.False(t, ok)
	_, ok = report.Find(models.CategoryWhois, "Copyright")
	assert.False(t, ok)
}

func TestStructuredDataAllowList(t *testing.T) {
	p := loadPage(t, page.Snapshot{
		HTML: `<script type="application/ld+json">{"@type":"Product","dateCreated":"2001-01-01"}</script>
			<script type="application/ld+json">{"@type":"Organization","name":"Example"}</script>`,
	})
	data := structuredData(p)
	require.NotNil(t, data)
	assert.Equal(t, "Example", data["name"])
}
