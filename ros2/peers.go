package ros2

import (
	"strings"
)

// parsePeerList splits a comma or whitespace separated list of host:port
// addresses, dropping empty entries and duplicates while keeping first
// seen order.
func parsePeerList(raw string) []string {
	fields := strings.FieldsFunc(raw, func(r rune) bool {
		return r == ',' || r == ' ' || r == '\t' || r == '\n'
	})
	seen := map[string]bool{}
	var peers []string
	for _, field := range fields {
		if seen[field] {
			continue
		}
		seen[field] = true
		peers = append(peers, field)
	}
	return peers
}

// mergePeerLists returns the union of both lists in first seen order.
func mergePeerLists(lhs []string, rhs []string) []string {
	seen := map[string]bool{}
	var peers []string
	for _, item := range lhs {
		if !seen[item] {
			seen[item] = true
			peers = append(peers, item)
		}
	}
	for _, item := range rhs {
		if !seen[item] {
			seen[item] = true
			peers = append(peers, item)
		}
	}
	return peers
}

// peerListDifference returns the members of lhs that are absent from rhs.
func peerListDifference(lhs []string, rhs []string) []string {
	right := map[string]bool{}
	for _, item := range rhs {
		right[item] = true
	}
	seen := map[string]bool{}
	var result []string
	for _, item := range lhs {
		if right[item] || seen[item] {
			continue
		}
		seen[item] = true
		result = append(result, item)
	}
	return result
}

func containsPeer(list []string, peer string) bool {
	for _, item := range list {
		if item == peer {
			return true
		}
	}
	return false
}
