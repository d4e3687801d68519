// Package report turns raw measurement samples into ranked outcomes and printable tables.
package report

import (
	"fmt"
	"io"
	"sort"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/go-faster/jx"
	"github.com/oqtopus-team/oqtopus-grover/statevec"
)

type Entry struct {
	Index     int
	Count     int
	Frequency float64
	IsTarget  bool
}

// Rank groups samples by index and orders them by descending count, ties by ascending index.
func Rank(samples []int, targets []int) []Entry {
	if len(samples) == 0 {
		return []Entry{}
	}
	counts := make(map[int]int)
	for _, s := range samples {
		counts[s]++
	}
	marked := toSet(targets)
	entries := make([]Entry, 0, len(counts))
	total := float64(len(samples))
	for idx, c := range counts {
		_, ok := marked[idx]
		entries = append(entries, Entry{
			Index:     idx,
			Count:     c,
			Frequency: float64(c) / total,
			IsTarget:  ok,
		})
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Count != entries[j].Count {
			return entries[i].Count > entries[j].Count
		}
		return entries[i].Index < entries[j].Index
	})
	return entries
}

// SuccessRate is the fraction of samples that hit a target. Empty samples give 0.
func SuccessRate(samples []int, targets []int) float64 {
	if len(samples) == 0 {
		return 0
	}
	marked := toSet(targets)
	hits := 0
	for _, s := range samples {
		if _, ok := marked[s]; ok {
			hits++
		}
	}
	return float64(hits) / float64(len(samples))
}

func Top(entries []Entry, k int) []Entry {
	if k < 0 {
		k = 0
	}
	if k > len(entries) {
		k = len(entries)
	}
	out := make([]Entry, k)
	copy(out, entries[:k])
	return out
}

// ToCounts keys the sample histogram by n-bit bitstrings.
func ToCounts(samples []int, n int) map[string]uint32 {
	counts := make(map[string]uint32)
	for _, s := range samples {
		counts[statevec.BitString(s, n)]++
	}
	return counts
}

var headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
var cellStyle = lipgloss.NewStyle().Padding(0, 1)

// Table writes entries as bitstring, decimal, count, probability and label columns.
func Table(w io.Writer, entries []Entry, n int, labels map[int]string) error {
	rows := make([][]string, 0, len(entries))
	for _, e := range entries {
		label := labels[e.Index]
		if e.IsTarget && label == "" {
			label = "*"
		}
		rows = append(rows, []string{
			statevec.BitString(e.Index, n),
			strconv.Itoa(e.Index),
			strconv.Itoa(e.Count),
			fmt.Sprintf("%.4f", e.Frequency),
			label,
		})
	}
	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("Bitstring", "Decimal", "Count", "Probability", "Label").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		})
	if _, err := fmt.Fprintln(w, t.Render()); err != nil {
		return err
	}
	return nil
}

// EncodeSamples renders samples as a JSON array.
func EncodeSamples(samples []int) []byte {
	e := jx.GetEncoder()
	defer jx.PutEncoder(e)
	e.ArrStart()
	for _, s := range samples {
		e.Int(s)
	}
	e.ArrEnd()
	out := make([]byte, len(e.Bytes()))
	copy(out, e.Bytes())
	return out
}

// DecodeSamples parses the output of EncodeSamples.
func DecodeSamples(data []byte) ([]int, error) {
	samples := []int{}
	d := jx.DecodeBytes(data)
	if err := d.Arr(func(d *jx.Decoder) error {
		v, err := d.Int()
		if err != nil {
			return err
		}
		samples = append(samples, v)
		return nil
	}); err != nil {
		return nil, err
	}
	return samples, nil
}

func toSet(indices []int) map[int]struct{} {
	set := make(map[int]struct{}, len(indices))
	for _, i := range indices {
		set[i] = struct{}{}
	}
	return set
}
