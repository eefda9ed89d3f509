package detector

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BetterCallFirewall/techscope/internal/models"
	"github.com/BetterCallFirewall/techscope/internal/page"
)

func TestSniffScopeRestoresAfterWindow(t *testing.T) {
	n := page.NewNetwork()
	n.Observe("https://example.com/api/users")
	n.Observe("https://example.com/static/app.js")

	s := startSniff(n, 20*time.Millisecond)
	assert.Equal(t, 1, n.Hooked())

	n.Observe("https://example.com/api/orders")
	n.Observe("https://example.com/api/users")
	assert.Equal(t, []string{"https://example.com/api/users", "https://example.com/api/orders"}, s.collected())

	assert.Eventually(t, func() bool { return n.Hooked() == 0 }, time.Second, 5*time.Millisecond)

	n.Observe("https://example.com/api/late")
	assert.Len(t, s.collected(), 2)
}

func TestSniffScopeCloseIsIdempotent(t *testing.T) {
	n := page.NewNetwork()
	s := startSniff(n, time.Hour)
	s.close()
	s.close()
	assert.Equal(t, 0, n.Hooked())
}

func TestAPIsCategory(t *testing.T) {
	p := loadPage(t, page.Snapshot{
		HTML: `<html><head>
			<script src="https://api.example.com/sdk.js"></script>
			<script>fetch("/graphql", {method: "POST"})</script>
			</head></html>`,
		Globals: map[string]page.Global{"axios": {}},
		Requests: []string{
			"https://www.example.com/api/session",
			"https://www.example.com/api/cart",
			"https://www.example.com/api/session",
			"https://www.example.com/api/profile",
		},
	})

	got := newEngine().Detect(p).Get(models.CategoryAPIs)

	require.Len(t, got, 3)
	assert.Equal(t, models.Finding{Name: "API Client", Version: "Axios detected", Icon: "🔄"}, got[0])
	assert.Equal(t, "GraphQL", got[1].Name)
	assert.Equal(t, models.Finding{
		Name: "API Endpoints",
		Version: "https://www.example.com/api/session, https://www.example.com/api/cart, " +
			"https://www.example.com/api/profile (4 total)",
		Icon: "🔌",
	}, got[2])
	assert.Equal(t, 0, p.Network().Hooked())
}

func TestAPIsSniffStaysInstalledForWindow(t *testing.T) {
	p := loadPage(t, page.Snapshot{HTML: `<p></p>`})
	e := newEngine(WithSniffWindow(250 * time.Millisecond))

	e.Detect(p)
	assert.Equal(t, 1, p.Network().Hooked())
	assert.Eventually(t, func() bool { return p.Network().Hooked() == 0 }, time.Second, 5*time.Millisecond)
}
