// Package provenance records where and when an ingested record was obtained.
package provenance

import "time"

type Source string

const (
	// SourceMock marks fallback data synthesized when every remote candidate failed.
	SourceMock   Source = "mock-data"
	SourceREST   Source = "rest-api"
	SourceImport Source = "crawl"
)

type Provenance struct {
	Source    Source
	ScrapedAt time.Time
}

func New(source Source, at time.Time) Provenance {
	return Provenance{Source: source, ScrapedAt: at.UTC()}
}

func (p Provenance) IsMock() bool {
	return p.Source == SourceMock
}
