package whois

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BetterCallFirewall/techscope/internal/models"
)

const registryPage = `<html><body>
<div class="df-block">
<pre class="df-raw" id="registryData">
Domain Name: EXAMPLE.COM
Registry Domain ID: 2336799_DOMAIN_COM-VRSN
Registrar: RESERVED-Internet Assigned Numbers Authority with a very long trailing name
Creation Date: 1995-08-14T04:00:00Z
Registry Expiry Date: 2026-08-13T04:00:00Z
Domain Status: clientDeleteProhibited https://icann.org/epp#clientDeleteProhibited
Name Server: A.IANA-SERVERS.NET
Name Server: B.IANA-SERVERS.NET
Name Server: C.IANA-SERVERS.NET
</pre>
</div>
</body></html>`

var now = time.Date(2026, time.July, 1, 0, 0, 0, 0, time.UTC)

func TestParseRegistryPage(t *testing.T) {
	got := Parse(registryPage, now)

	assert.Equal(t, []models.Finding{
		{Name: "Registration Date", Version: "1995-08-14", Icon: "📅"},
		{Name: "Expiration Date", Version: "2026-08-13", Icon: "⏱️"},
		{Name: "Expiration Status", Version: "Valid (43 days left)", Icon: "✅"},
		{Name: "Registrar", Version: "RESERVED-Internet Assigned Numbers Authority with", Icon: "🏢"},
		{Name: "Name Servers", Version: "A.IANA-SERVERS.NET, B.IANA-SERVERS.NET", Icon: "🌐"},
		{Name: "Domain Status", Version: "clientDeleteProhibited https://icann.org/epp#clien", Icon: "🔒"},
	}, got)
}

func TestParseWithoutContainerIsEmpty(t *testing.T) {
	got := Parse(`<html><body><p>Creation Date: 2001-01-01</p></body></html>`, now)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestParsePartialData(t *testing.T) {
	got := Parse(`<div class="whois-data">Registrar: Example Registrar, Inc.
Expires on: someday</div>`, now)

	assert.Equal(t, []models.Finding{{Name: "Registrar", Version: "Example Registrar, Inc.", Icon: "🏢"}}, got)
}

func TestLabelPriority(t *testing.T) {
	got := Parse(`<div class="whois-data">Created: 03 March 2010
Registered on: 12-Feb-2011
</div>`, now)
	require.NotEmpty(t, got)
	assert.Equal(t, models.Finding{Name: "Registration Date", Version: "12-Feb-2011", Icon: "📅"}, got[0])
}

func TestDateFormats(t *testing.T) {
	cases := []struct {
		in   string
		want string
		year int
	}{
		{"2024-05-01T00:00:00Z", "2024-05-01", 2024},
		{"01-Jan-2027 UTC", "01-Jan-2027", 2027},
		{"12/31/2025", "12/31/2025", 2025},
		{"March 5, 2030", "March 5, 2030", 2030},
		{"5-JUN-2031", "5-JUN-2031", 2031},
		{"7 September 2029", "7 September 2029", 2029},
	}
	for _, tc := range cases {
		raw, parsed, ok := extractDate(tc.in)
		require.True(t, ok, tc.in)
		assert.Equal(t, tc.want, raw, tc.in)
		assert.Equal(t, tc.year, parsed.Year(), tc.in)
	}

	_, _, ok := extractDate("never")
	assert.False(t, ok)
}

func TestExpirationStatusBoundaries(t *testing.T) {
	cases := map[int]string{
		-1: "Expired",
		0:  "Expiring soon (0 days)",
		29: "Expiring soon (29 days)",
		30: "Valid (30 days left)",
	}
	for days, want := range cases {
		got, _ := ExpirationStatus(days)
		assert.Equal(t, want, got, "daysLeft=%d", days)
	}
}

func TestDaysLeftRoundsUp(t *testing.T) {
	exp := time.Date(2026, time.May, 1, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, 1, DaysLeft(exp, exp.Add(-12*time.Hour)))
	assert.Equal(t, 0, DaysLeft(exp, exp))
	assert.Equal(t, 0, DaysLeft(exp, exp.Add(12*time.Hour)))
	assert.Equal(t, -1, DaysLeft(exp, exp.Add(36*time.Hour)))
}

func TestSplit(t *testing.T) {
	exp, other := Split([]models.Finding{
		{Name: "Registration Date"},
		{Name: "Registrar"},
		{Name: "Expiration Status"},
		{Name: "Name Servers"},
	})
	assert.Equal(t, []models.Finding{{Name: "Registration Date"}, {Name: "Expiration Status"}}, exp)
	assert.Equal(t, []models.Finding{{Name: "Registrar"}, {Name: "Name Servers"}}, other)
	assert.True(t, IsExpirationFinding("Expiration Date"))
	assert.False(t, IsExpirationFinding("Domain Status"))
}
