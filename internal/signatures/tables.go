package signatures

import "github.com/BetterCallFirewall/techscope/internal/models"

const detected = "Detected"

// Default возвращает встроенный набор правил.
func Default() Set {
	return Set{
		Frameworks:      frameworks(),
		Libraries:       libraries(),
		BuildTools:      buildTools(),
		Trackers:        trackers(),
		Analytics:       analytics(),
		AdNetworks:      adNetworks(),
		TagManagers:     tagManagers(),
		PaymentGateways: paymentGateways(),
		SocialPlatforms: socialPlatforms(),
		CDNs:            cdns(),
	}
}

func frameworks() []Rule {
	c := models.CategoryFrameworks
	return []Rule{
		{
			Category:       c,
			Name:           "React",
			Icon:           "⚛️",
			Globals:        []string{"__REACT_DEVTOOLS_GLOBAL_HOOK__", "React"},
			GlobalPrefixes: []string{"__REACT_", "__NEXT_"},
			Selectors: []string{
				`[data-reactroot], [data-reactid], [data-react-helmet]`,
				`*[class*="react-"], *[class*="_react-"]`,
			},
			Version: VersionSource{
				Globals:     []string{"React", "__REACT_DEVTOOLS_GLOBAL_HOOK__"},
				ScriptToken: "react",
				Attribute:   AttrRef{Selector: "[data-reactroot]", Attr: "data-react-version"},
				Fallback:    detected,
			},
			Children: []Rule{{
				Category:  c,
				Name:      "Next.js",
				Icon:      "▲",
				Globals:   []string{"__NEXT_DATA__"},
				Selectors: []string{`#__next`, `script[src*="_next/"]`, `link[href*="_next/"]`},
				Version:   VersionSource{ScriptToken: "next", Fallback: detected},
			}},
		},
		{
			Category:       c,
			Name:           "Svelte",
			Icon:           "🎯",
			Globals:        []string{"__SVELTE__"},
			GlobalPrefixes: []string{"__SVELTE"},
			Selectors:      []string{`script[type="module"][src*="svelte"]`, `*[class*="svelte-"]`},
			HeadMarkers:    []string{"svelte-"},
			Version:        VersionSource{ScriptToken: "svelte", Fallback: detected},
			Children: []Rule{{
				Category:  c,
				Name:      "SvelteKit",
				Icon:      "⚡",
				Globals:   []string{"__SVELTEKIT_APP__"},
				Selectors: []string{`script[src*="/@fs/"]`, `script[src*="/_app/"]`},
				Version:   VersionSource{Fallback: detected},
			}},
		},
		{
			Category:       c,
			Name:           "SolidJS",
			Icon:           "💎",
			Globals:        []string{"_$SOLID_"},
			GlobalContains: []string{"SOLID"},
			Selectors:      []string{`script[type="module"][src*="solid"]`, `style[data-solid]`, `*[data-solid]`},
			Version:        VersionSource{ScriptToken: "solid", Fallback: detected},
		},
		{
			Category:       c,
			Name:           "Vue",
			Icon:           "🟢",
			Globals:        []string{"__VUE__"},
			GlobalPrefixes: []string{"__VUE_"},
			Selectors: []string{
				`[data-v-]`,
				`*[class*="-vue-"]`,
				`#app[data-v-app]`,
				`script[src*="vue."]`,
				`script[src*="vue@"]`,
			},
			Version: VersionSource{
				Globals:     []string{"__VUE__", "Vue"},
				ScriptToken: "vue",
				Fallback:    detected,
			},
			Children: []Rule{{
				Category:  c,
				Name:      "Nuxt.js",
				Icon:      "🟩",
				Globals:   []string{"__NUXT__"},
				Selectors: []string{`#__nuxt`, `script[src*="/_nuxt/"]`},
				Version:   VersionSource{ScriptToken: "nuxt", Fallback: detected},
			}},
		},
		{
			Category:       c,
			Name:           "Angular",
			Icon:           "🅰️",
			Globals:        []string{"angular"},
			GlobalPrefixes: []string{"NG_"},
			Selectors:      []string{`[ng-version], [ng-app], [ng-controller]`, `*[class*="ng-"]`},
			Version: VersionSource{
				Globals:   []string{"angular"},
				Attribute: AttrRef{Selector: "[ng-version]", Attr: "ng-version"},
				Fallback:  detected,
			},
		},
	}
}

func libraries() []Rule {
	c := models.CategoryLibraries
	return []Rule{
		{
			Category:  c,
			Name:      "jQuery",
			Icon:      "🎯",
			Globals:   []string{"jQuery", "$"},
			Selectors: []string{`script[src*="jquery"]`},
			Version:   VersionSource{Globals: []string{"jQuery"}, ScriptToken: "jquery", Fallback: detected},
		},
		{
			Category: c,
			Name:     "Bootstrap",
			Icon:     "🅱️",
			Globals:  []string{"bootstrap"},
			Selectors: []string{
				`link[href*="bootstrap"]`,
				`script[src*="bootstrap"]`,
				`.container-fluid, .row, .col, .modal`,
				`*[class*="bs-"]`,
			},
			Version: VersionSource{ScriptToken: "bootstrap", LinkToken: true, Fallback: detected},
		},
		{
			Category: c,
			Name:     "Tailwind CSS",
			Icon:     "🌊",
			Selectors: []string{
				`*[class*="sm:"], *[class*="md:"], *[class*="lg:"]`,
				`script[src*="tailwind"]`,
				`*[class*="space-y-"], *[class*="grid-cols-"]`,
			},
			Version: VersionSource{ScriptToken: "tailwind", Fallback: detected},
		},
	}
}

func buildTools() []Rule {
	c := models.CategoryBuildTools
	return []Rule{
		{
			Category:  c,
			Name:      "Webpack",
			Icon:      "📦",
			Globals:   []string{"webpackJsonp", "__webpack_require__"},
			Selectors: []string{`script[src*="webpack"]`},
			Version:   VersionSource{Fallback: detected},
		},
		{
			Category:  c,
			Name:      "Vite",
			Icon:      "⚡",
			Selectors: []string{`script[type="module"][src*="@vite"], script[type="module"][src*="@react-refresh"]`},
			Version:   VersionSource{Fallback: detected},
		},
	}
}

// aggregate строит правила, которые только добавляют имя в сводку категории.
func aggregate(c models.Category, sources SourceKind, entries ...entry) []Rule {
	rules := make([]Rule, 0, len(entries))
	for _, en := range entries {
		rules = append(rules, Rule{
			Category: c,
			Name:     en.name,
			Patterns: en.patterns,
			Sources:  sources,
			Globals:  en.globals,
		})
	}
	return rules
}

type entry struct {
	name     string
	patterns []string
	globals  []string
}

func e(name string, patterns ...string) entry {
	return entry{name: name, patterns: patterns}
}

func trackers() []Rule {
	return aggregate(models.CategoryTrackers, ScriptSrc|IframeSrc|ImageSrc|RawHTML,
		e("Google Analytics", "google-analytics.com", "ga.js", "gtag.js"),
		e("Facebook Pixel", "fbevents.js", "facebook.com/tr"),
		e("Hotjar", "hotjar.com", "hj.js"),
		e("Piwik/Matomo", "piwik.js", "matomo.js"),
		e("LinkedIn Insight Tag", "linkedin.com/insight"),
		e("Twitter Pixel", "twq.js", "twitter.com/ads"),
		e("AdRoll", "adroll.com"),
		e("Criteo", "criteo.com", "criteo.net"),
		e("Taboola", "taboola.com"),
		e("Outbrain", "outbrain.com"),
	)
}

func analytics() []Rule {
	withGlobal := func(en entry, global string) entry {
		en.globals = []string{global}
		return en
	}
	return aggregate(models.CategoryAnalytics, ScriptSrc,
		withGlobal(e("Google Analytics", "google-analytics.com", "ga.js", "gtag.js"), "ga"),
		withGlobal(e("Google Tag Manager", "googletagmanager.com", "gtm.js"), "dataLayer"),
		withGlobal(e("Mixpanel", "mixpanel.com"), "mixpanel"),
		withGlobal(e("Amplitude", "amplitude.com"), "amplitude"),
		withGlobal(e("Segment", "segment.com"), "analytics"),
		withGlobal(e("Matomo", "matomo.js"), "_paq"),
		withGlobal(e("Hotjar", "hotjar.com"), "hj"),
		withGlobal(e("Adobe Analytics", "omniture.com"), "s"),
	)
}

func adNetworks() []Rule {
	return aggregate(models.CategoryAdNetworks, ScriptSrc|IframeSrc|ImageSrc|RawHTML,
		e("Google Ads", "adsbygoogle", "googleads", "doubleclick", "googlesyndication"),
		e("Facebook Ads", "facebook.com/tr", "connect.facebook.net/signals"),
		e("Amazon Ads", "amazon-adsystem", "adthat.com"),
		e("AdRoll", "adroll.com"),
		e("Criteo", "criteo.com", "criteo.net"),
		e("Taboola", "taboola.com"),
		e("Outbrain", "outbrain.com"),
		e("MediaMath", "mathtag.com"),
		e("AppNexus", "adnxs.com"),
		e("The Trade Desk", "adsrvr.org"),
		e("Rubicon Project", "rubiconproject.com"),
		e("OpenX", "openx.net"),
		e("PubMatic", "pubmatic.com"),
		e("Yandex Ads", "yandex.ru/ads"),
		e("Media.net Ads", "media.net"),
		e("Propellers Ads", "propelleradscom"),
		e("Adsterra Ads", "adsterra.com"),
		e("Adquake Ads", "adquake.com"),
		e("Monetag Ads", "monetag.com"),
		e("Ezoic Ads", "ezoic.com"),
		e("PopAds", "Popads.net"),
		e("Adcash Ads", "adcash.com"),
		e("Mediavine Ads", "mediavine.com"),
		e("RevContent Ads", "revContent.com"),
		e("Skimlinks Ads", "skimlinks.com"),
		e("Bidvertiser Ads", "bidvertiser.com"),
		e("Adversal Ads", "adversal.com"),
		e("Monumetric Ads", "monumetric.com"),
		e("Sovrn Holdings Ads", "sovrn.com"),
		e("Setupad Ads", "setupad.com"),
		e("Taboola Ads", "taboola.com"),
		e("ylliX Ads", "ylliX.com"),
	)
}

func tagManagers() []Rule {
	rules := aggregate(models.CategoryTagManagers, ScriptSrc|RawHTML,
		e("Google Tag Manager", "googletagmanager.com", "gtm.js", "gtm-"),
		e("Adobe Launch/DTM", "assets.adobedtm.com", "launch-", "satelliteLib"),
		e("Tealium", "tealium", "utag.js"),
		e("Segment", "segment.com/analytics.js", "segment.io"),
		e("Ensighten", "ensighten.com"),
		e("Matomo Tag Manager", "matomo", "piwik"),
		e("Commanders Act", "commandersact.com"),
		e("Signal", "signal.co"),
		e("Piwik PRO", "piwik.pro"),
	)
	rules[0].Globals = []string{"google_tag_manager", "dataLayer"}
	return rules
}

func paymentGateways() []Rule {
	return aggregate(models.CategoryPaymentGateways, ScriptSrc|IframeSrc|RawHTML,
		e("Stripe", "stripe.com", "js.stripe.com"),
		e("PayPal", "paypal.com", "paypalobjects.com"),
		e("Square", "squareup.com"),
		e("Braintree", "braintreegateway.com"),
		e("Authorize.net", "authorize.net"),
		e("Razorpay", "razorpay.com"),
		e("2Checkout", "2checkout.com"),
		e("Adyen", "adyen.com"),
		e("Buymeacoffee", "buymeacoffee.com"),
		e("Patreon", "patreon.com"),
		e("Ko-fi", "ko-fi.com"),
		e("Ghost", "ghost.org"),
		e("Coindrop", "coindrop.to"),
		e("Tipeee", "tipeee.com"),
	)
}

func socialPlatforms() []Rule {
	return aggregate(models.CategorySocialMediaLinks, AnchorHref,
		e("Facebook", "facebook.com"),
		e("Twitter", "twitter.com", "x.com"),
		e("Instagram", "instagram.com"),
		e("LinkedIn", "linkedin.com"),
		e("YouTube", "youtube.com"),
		e("Pinterest", "pinterest.com"),
		e("TikTok", "tiktok.com"),
		e("Snapchat", "snapchat.com"),
		e("Medium", "medium.com"),
		e("Twitch", "twitch.tv"),
		e("WeChat", "wechat.com"),
		e("Discord", "discord.com"),
		e("Onlyfans", "onlyfans.com"),
		e("Telegram", "telegram.com", "telegram.me", "telegram.org"),
	)
}

func cdns() []Rule {
	return aggregate(models.CategoryServerInfo, ScriptSrc|LinkHref,
		e("Cloudflare CDN", "cdn.cloudflare.net"),
		e("AWS", "amazonaws.com"),
		e("AWS CloudFront", "cloudfront.net"),
		e("Akamai", "akamai"),
		e("Fastly", "fastly.net"),
		e("CDNJS (Cloudflare)", "cdnjs.cloudflare.com"),
		e("Google APIs", "googleapis.com"),
		e("Google Static", "gstatic.com"),
		e("jsDelivr", "jsdelivr.net"),
		e("UNPKG", "unpkg.com"),
	)
}
