package catalog

// seedSources is the deploy-time registry used when no catalog file is
// provided. Poll intervals are seconds; trust weights feed the quality
// scorer.
var seedSources = []SourceDefinition{
	{
		ID:                  "ethresearch",
		BaseURL:             "https://ethresear.ch",
		Adapter:             AdapterForum,
		PollIntervalSeconds: 1800,
		DefaultCategory:     CategoryResearch,
		TrustWeight:         0.9,
	},
	{
		ID:                  "magicians-forum",
		BaseURL:             "https://ethereum-magicians.org",
		Adapter:             AdapterForum,
		PollIntervalSeconds: 1800,
		DefaultCategory:     CategoryResearch,
		TrustWeight:         0.85,
	},
	{
		ID:                  "foundation-blog",
		BaseURL:             "https://blog.ethereum.org/en/feed.xml",
		Adapter:             AdapterFeed,
		PollIntervalSeconds: 3600,
		DefaultCategory:     CategoryClientRelease,
		TrustWeight:         0.95,
	},
	{
		ID:                  "weekinethnews",
		BaseURL:             "https://weekinethereumnews.com/feed/",
		Adapter:             AdapterFeed,
		PollIntervalSeconds: 7200,
		DefaultCategory:     CategoryCommunity,
		TrustWeight:         0.7,
	},
	{
		ID:                  "rekt-news",
		BaseURL:             "https://rekt.news/rss/feed.xml",
		Adapter:             AdapterFeed,
		PollIntervalSeconds: 1800,
		DefaultCategory:     CategorySecurity,
		TrustWeight:         0.8,
	},
	{
		ID:                  "tvl-tracker",
		BaseURL:             "https://api.llama.fi",
		Adapter:             AdapterMetrics,
		PollIntervalSeconds: 86400,
		DefaultCategory:     CategoryDefi,
		TrustWeight:         0.75,
	},
	{
		ID:                  "ethdaily-agg",
		BaseURL:             "https://www.reddit.com/r/ethereum",
		Adapter:             AdapterAggregator,
		PollIntervalSeconds: 3600,
		DefaultCategory:     CategoryCommunity,
		TrustWeight:         0.5,
	},
	{
		ID:                  "protocol-announce",
		BaseURL:             "https://ethereum.org/en/blog/",
		Adapter:             AdapterHTMLScrape,
		PollIntervalSeconds: 7200,
		DefaultCategory:     CategoryGeneral,
		TrustWeight:         0.8,
	},
	{
		ID:                  "geth-prs",
		BaseURL:             "https://api.github.com/repos/ethereum/go-ethereum",
		Adapter:             AdapterCodeHost,
		PollIntervalSeconds: 3600,
		DefaultCategory:     CategoryClientRelease,
		TrustWeight:         0.85,
	},
	{
		ID:                  "eips-repo",
		BaseURL:             "https://api.github.com/repos/ethereum/EIPs",
		Adapter:             AdapterCodeHost,
		PollIntervalSeconds: 7200,
		DefaultCategory:     CategoryResearch,
		TrustWeight:         0.9,
	},
}
