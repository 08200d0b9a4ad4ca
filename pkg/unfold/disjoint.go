package unfold

// disjointSet is a union-find over the small dense ids 0..n-1. Unions keep
// the smaller root, so ids that come first in a group are always its root.
type disjointSet struct {
	parent []int
}

// reset prepares the set for n singleton elements, reusing storage.
func (d *disjointSet) reset(n int) {
	if cap(d.parent) < n {
		d.parent = make([]int, n)
	}
	d.parent = d.parent[:n]
	for i := range d.parent {
		d.parent[i] = i
	}
}

func (d *disjointSet) find(x int) int {
	root := x
	for d.parent[root] != root {
		root = d.parent[root]
	}
	for d.parent[x] != root {
		d.parent[x], x = root, d.parent[x]
	}
	return root
}

// union merges the groups of a and b and returns the new root.
func (d *disjointSet) union(a, b int) int {
	ra, rb := d.find(a), d.find(b)
	if rb < ra {
		ra, rb = rb, ra
	}
	d.parent[rb] = ra
	return ra
}
