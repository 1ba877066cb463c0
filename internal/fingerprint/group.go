package fingerprint

// Item is a hashed image with the identifier it was saved under.
type Item struct {
	ID   string
	Hash Hash
}

// Groups clusters items whose pHashes are within threshold bits of each
// other, transitively. Only clusters of two or more are returned; items keep
// their input order and clusters are ordered by their first item.
func Groups(items []Item, threshold int) [][]Item {
	parent := make([]int, len(items))
	for i := range parent {
		parent[i] = i
	}
	var find func(int) int
	find = func(i int) int {
		for parent[i] != i {
			parent[i] = parent[parent[i]]
			i = parent[i]
		}
		return i
	}

	for i := range items {
		for j := i + 1; j < len(items); j++ {
			if Near(items[i].Hash, items[j].Hash, threshold) {
				ri, rj := find(i), find(j)
				if ri != rj {
					parent[max(ri, rj)] = min(ri, rj)
				}
			}
		}
	}

	byRoot := make(map[int][]Item)
	var roots []int
	for i, item := range items {
		r := find(i)
		if _, ok := byRoot[r]; !ok {
			roots = append(roots, r)
		}
		byRoot[r] = append(byRoot[r], item)
	}

	var groups [][]Item
	for _, r := range roots {
		if len(byRoot[r]) > 1 {
			groups = append(groups, byRoot[r])
		}
	}
	return groups
}
