package types

import "sort"

func containsString(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}

// addSorted inserts v unless already present and returns the list sorted.
func addSorted(list []string, v string) []string {
	if containsString(list, v) {
		return list
	}
	list = append(list, v)
	sort.Strings(list)
	return list
}

func removeString(list []string, v string) []string {
	for i, s := range list {
		if s == v {
			return append(list[:i:i], list[i+1:]...)
		}
	}
	return list
}

func sortedCopy(list []string) []string {
	if list == nil {
		return []string{}
	}
	out := make([]string, len(list))
	copy(out, list)
	sort.Strings(out)
	return out
}

func orEmpty(list []string) []string {
	if list == nil {
		return []string{}
	}
	return list
}
