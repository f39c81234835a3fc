package memory

// Store bundles one in-memory repository per entity.
type Store struct {
	Leagues     *LeagueRepository
	Seasons     *SeasonRepository
	Teams       *TeamRepository
	Players     *PlayerRepository
	Matches     *MatchRepository
	Boxscores   *BoxscoreRepository
	SeasonStats *SeasonStatRepository
	Issues      *QAIssueRepository
	Crawl       *CrawlRepository
}

func NewStore() *Store {
	return &Store{
		Leagues:     NewLeagueRepository(nil),
		Seasons:     NewSeasonRepository(),
		Teams:       NewTeamRepository(),
		Players:     NewPlayerRepository(),
		Matches:     NewMatchRepository(),
		Boxscores:   NewBoxscoreRepository(),
		SeasonStats: NewSeasonStatRepository(),
		Issues:      NewQAIssueRepository(),
		Crawl:       NewCrawlRepository(),
	}
}
