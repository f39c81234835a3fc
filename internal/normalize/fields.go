package normalize

import (
	"math"
	"strconv"
	"strings"
	"time"
)

// Alias tables: the first key present in a raw object wins.
var (
	leagueIDKeys   = []string{"ligaId", "liga_id", "ligaID", "id"}
	seasonIDKeys   = []string{"seasonId", "season", "season_id", "saison"}
	leagueNameKeys = []string{"name", "title", "ligaName", "liganame"}
	levelKeys      = []string{"level", "division", "spielklasse"}
	regionKeys     = []string{"region", "area", "bezirk"}

	matchIDKeys   = []string{"matchId", "id", "spielplan_id", "spielplanId"}
	matchNoKeys   = []string{"matchNo", "number", "spielnummer"}
	matchDateKeys = []string{"date", "gameDate", "kickoff"}
	resultKeys    = []string{"result", "score"}
	statusKeys    = []string{"status", "state"}

	playerIDKeys   = []string{"playerId", "player_id", "id"}
	playerNameKeys = []string{"name", "playerName", "player_name"}
	ptsKeys        = []string{"pts", "points"}
	threePmKeys    = []string{"3pm", "threePm", "three_pm"}
	threePaKeys    = []string{"3pa", "threePa", "three_pa"}
	ftmKeys        = []string{"ftm", "freeThrowsMade"}
	ftaKeys        = []string{"fta", "freeThrowsAttempted"}
)

func first(obj record, keys []string) (any, bool) {
	for _, key := range keys {
		if v, ok := obj[key]; ok && v != nil {
			if s, isString := v.(string); isString && strings.TrimSpace(s) == "" {
				continue
			}
			return v, true
		}
	}
	return nil, false
}

func stringField(obj record, keys []string) string {
	v, ok := first(obj, keys)
	if !ok {
		return ""
	}
	return asString(v)
}

func intField(obj record, keys []string) int {
	v, _ := first(obj, keys)
	return asInt(v)
}

func asString(v any) string {
	switch value := v.(type) {
	case string:
		return strings.TrimSpace(value)
	case float64:
		return strconv.FormatFloat(value, 'f', -1, 64)
	case int:
		return strconv.Itoa(value)
	case int64:
		return strconv.FormatInt(value, 10)
	default:
		return ""
	}
}

// asInt coerces anything numeric-looking to an int and everything else to 0.
func asInt(v any) int {
	switch value := v.(type) {
	case float64:
		return floatToInt(value)
	case int:
		return value
	case int64:
		return int(value)
	case string:
		trimmed := strings.TrimSpace(value)
		if out, err := strconv.Atoi(trimmed); err == nil {
			return out
		}
		if out, err := strconv.ParseFloat(strings.Replace(trimmed, ",", ".", 1), 64); err == nil {
			return floatToInt(out)
		}
		return 0
	default:
		return 0
	}
}

// floatToInt treats values an int cannot hold like a missing field.
func floatToInt(f float64) int {
	if math.IsNaN(f) || f < float64(math.MinInt) || f >= float64(math.MaxInt) {
		return 0
	}
	return int(f)
}

func asFloat(v any) float64 {
	switch value := v.(type) {
	case float64:
		if math.IsNaN(value) || math.IsInf(value, 0) {
			return 0
		}
		return value
	case int:
		return float64(value)
	case int64:
		return float64(value)
	case string:
		out, err := strconv.ParseFloat(strings.Replace(strings.TrimSpace(value), ",", ".", 1), 64)
		if err != nil || math.IsNaN(out) || math.IsInf(out, 0) {
			return 0
		}
		return out
	default:
		return 0
	}
}

var dateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
	"02.01.2006 15:04",
	"02.01.2006",
}

// asTime accepts the layouts above or a unix timestamp in milliseconds.
func asTime(v any) (time.Time, bool) {
	switch value := v.(type) {
	case string:
		s := strings.TrimSpace(value)
		for _, layout := range dateLayouts {
			if t, err := time.Parse(layout, s); err == nil {
				return t.UTC(), true
			}
		}
		if ms, err := strconv.ParseInt(s, 10, 64); err == nil && ms > 0 {
			return time.UnixMilli(ms).UTC(), true
		}
	case float64:
		if value > 0 && !math.IsInf(value, 0) {
			return time.UnixMilli(int64(value)).UTC(), true
		}
	}
	return time.Time{}, false
}

func nested(obj record, key string) (record, bool) {
	inner, ok := obj[key].(record)
	return inner, ok
}
