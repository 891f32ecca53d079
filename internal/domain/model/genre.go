package model

import (
	"sort"
	"strings"
)

// FavouriteGenreCount is the number of genres reported as a user's favourites.
const FavouriteGenreCount = 3

type genreCount struct {
	name  string
	count int
}

// TopGenres counts genre occurrences across movies and returns the k most
// frequent names. A movie listed twice is counted twice. Equal counts keep the
// order in which the genres were first seen.
func TopGenres(movies []*Movie, k int) []string {
	if k <= 0 {
		return []string{}
	}

	index := make(map[string]int)
	var counts []genreCount
	for _, m := range movies {
		if m == nil {
			continue
		}
		for _, g := range m.GenreList() {
			i, ok := index[g]
			if !ok {
				i = len(counts)
				index[g] = i
				counts = append(counts, genreCount{name: g})
			}
			counts[i].count++
		}
	}

	sort.SliceStable(counts, func(i, j int) bool {
		return counts[i].count > counts[j].count
	})

	if len(counts) > k {
		counts = counts[:k]
	}
	out := make([]string, len(counts))
	for i, c := range counts {
		out[i] = c.name
	}
	return out
}

// FavouriteGenres renders the top genres as a single comma-joined string.
func FavouriteGenres(movies []*Movie) string {
	return strings.Join(TopGenres(movies, FavouriteGenreCount), ", ")
}
