package engine

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMatchNameCaseInsensitivePrefix(t *testing.T) {
	require.True(t, MatchName("sw", "Sword of Truth"))
	require.True(t, MatchName("SWORD", "sword of truth"))
	require.True(t, MatchName("tr", "Sword of Truth"))
	require.False(t, MatchName("", "Sword of Truth"))
	require.False(t, MatchName("xyz", "Sword of Truth"))
}

func TestMatchListExactBeatsPrefix(t *testing.T) {
	candidates := []string{"Sword", "Sword of Truth", "Swordfish"}
	require.Equal(t, []string{"Sword"}, MatchList("sword", candidates))
}

func TestMatchListPrefixWhenNoExact(t *testing.T) {
	candidates := []string{"Sword of Truth", "Swordfish"}
	got := MatchList("sw", candidates)
	require.ElementsMatch(t, candidates, got)
}

func TestMatchListNoMatches(t *testing.T) {
	require.Empty(t, MatchList("zzz", []string{"Sword"}))
}

func TestFindResolvesAlias(t *testing.T) {
	alias := func(s string) (interface{}, bool) {
		if s == "me" {
			return "the-caller", true
		}
		return nil, false
	}
	result, item, _ := Find("me", nil, nil, alias)
	require.Equal(t, FindOne, result)
	require.Equal(t, "the-caller", item)
}

func TestFindNoneWhenNothingMatches(t *testing.T) {
	result, item, _ := Find("zzz", []string{"Sword"}, []interface{}{1}, nil)
	require.Equal(t, FindNone, result)
	require.Nil(t, item)
}

func TestFindOneReturnsMatchingItem(t *testing.T) {
	names := []string{"Sword", "Shield"}
	items := []interface{}{1, 2}
	result, item, _ := Find("shi", names, items, nil)
	require.Equal(t, FindOne, result)
	require.Equal(t, 2, item)
}

func TestFindMultipleReturnsCandidateNames(t *testing.T) {
	names := []string{"Sword of Truth", "Swordfish"}
	items := []interface{}{1, 2}
	result, item, candidates := Find("sw", names, items, nil)
	require.Equal(t, FindMultiple, result)
	require.Nil(t, item)
	require.ElementsMatch(t, names, candidates)
}
