package analytics

import (
	"fmt"
	"math/rand/v2"
	"sort"
)

// MinSegmentClients is the fewest distinct clients segmentation runs on
const MinSegmentClients = 3

var (
	segmentNames = []string{"Bronze", "Silver", "Gold"}

	segmentCharacteristics = []string{
		"Lower value, moderate payment reliability",
		"Medium value, good payment reliability",
		"High value, excellent payment reliability",
	}
)

// ClientSegment is one client's tier assignment and aggregate stats
type ClientSegment struct {
	ClientName      string  `json:"client_name"`
	Segment         int     `json:"segment"`
	SegmentName     string  `json:"segment_name"`
	Characteristics string  `json:"characteristics"`
	TotalRevenue    float64 `json:"total_revenue"`
	InvoiceCount    int     `json:"invoice_count"`
	PaidCount       int     `json:"paid_count"`
	AverageAmount   float64 `json:"average_amount"`
	PaymentRate     float64 `json:"payment_rate"`
}

// SegmentSummary describes one occupied segment
type SegmentSummary struct {
	Segment         int     `json:"segment"`
	Name            string  `json:"name"`
	Count           int     `json:"count"`
	Characteristics string  `json:"characteristics"`
	AvgRevenue      float64 `json:"avg_revenue"`
}

// SegmentationResult is the result of Segmenter.SegmentClients
type SegmentationResult struct {
	Segments       []ClientSegment  `json:"segments"`
	SegmentSummary []SegmentSummary `json:"segment_summary"`
}

// Segmenter clusters clients by revenue and payment reliability
type Segmenter struct {
	rng *rand.Rand
}

// NewSegmenter returns a segmenter whose k-means initialisation draws from rng
func NewSegmenter(rng *rand.Rand) *Segmenter {
	if rng == nil {
		rng = newRand(0)
	}
	return &Segmenter{rng: rng}
}

// SegmentClients assigns every client a tier. Clusters are ranked by mean
// revenue so segment 0 is always the lowest-revenue group.
func (s *Segmenter) SegmentClients(invoices []Invoice) SegmentationResult {
	result := SegmentationResult{Segments: []ClientSegment{}, SegmentSummary: []SegmentSummary{}}

	names := distinctClients(invoices)
	if len(names) < MinSegmentClients {
		return result
	}

	stats := make(map[string]*ClientSegment, len(names))
	for _, name := range names {
		stats[name] = &ClientSegment{ClientName: name}
	}
	for _, inv := range invoices {
		cs := stats[inv.ClientName]
		cs.TotalRevenue += inv.Total
		cs.InvoiceCount++
		if inv.IsPaid() {
			cs.PaidCount++
		}
	}

	points := make([][]float64, len(names))
	for i, name := range names {
		cs := stats[name]
		points[i] = []float64{cs.TotalRevenue, float64(cs.PaidCount) / float64(cs.InvoiceCount)}
	}

	k := min(DefaultClusterCount, len(names)/2)
	assignments := NewKMeans(k, DefaultMaxIterations, s.rng).Cluster(points)
	rank := rankClustersByRevenue(assignments, points)

	type group struct {
		count   int
		revenue float64
	}
	groups := make(map[int]*group)
	for i, name := range names {
		cs := stats[name]
		cs.Segment = rank[assignments[i]]
		cs.SegmentName, cs.Characteristics = segmentLabel(cs.Segment)
		cs.AverageAmount = cs.TotalRevenue / float64(cs.InvoiceCount)
		cs.PaymentRate = float64(cs.PaidCount) / float64(cs.InvoiceCount)
		result.Segments = append(result.Segments, *cs)

		g, ok := groups[cs.Segment]
		if !ok {
			g = &group{}
			groups[cs.Segment] = g
		}
		g.count++
		g.revenue += cs.TotalRevenue
	}

	segments := make([]int, 0, len(groups))
	for seg := range groups {
		segments = append(segments, seg)
	}
	sort.Ints(segments)
	for _, seg := range segments {
		g := groups[seg]
		name, characteristics := segmentLabel(seg)
		result.SegmentSummary = append(result.SegmentSummary, SegmentSummary{
			Segment:         seg,
			Name:            name,
			Count:           g.count,
			Characteristics: characteristics,
			AvgRevenue:      g.revenue / float64(g.count),
		})
	}

	return result
}

// rankClustersByRevenue maps each occupied cluster index to its rank by mean revenue ascending
func rankClustersByRevenue(assignments []int, points [][]float64) map[int]int {
	sums := make(map[int]float64)
	counts := make(map[int]int)
	for i, c := range assignments {
		sums[c] += points[i][0]
		counts[c]++
	}

	clusters := make([]int, 0, len(counts))
	for c := range counts {
		clusters = append(clusters, c)
	}
	sort.Slice(clusters, func(i, j int) bool {
		mi := sums[clusters[i]] / float64(counts[clusters[i]])
		mj := sums[clusters[j]] / float64(counts[clusters[j]])
		if mi != mj {
			return mi < mj
		}
		return clusters[i] < clusters[j]
	})

	rank := make(map[int]int, len(clusters))
	for r, c := range clusters {
		rank[c] = r
	}
	return rank
}

func segmentLabel(segment int) (string, string) {
	if segment >= 0 && segment < len(segmentNames) {
		return segmentNames[segment], segmentCharacteristics[segment]
	}
	return fmt.Sprintf("Segment %d", segment), "Custom segment"
}
