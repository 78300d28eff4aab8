package coverage

// CombinationCount is the number of non-empty subsets of n elements, 2^n - 1.
func CombinationCount(n int) uint64 {
	if n <= 0 {
		return 0
	}
	if n >= 64 {
		return ^uint64(0)
	}
	return 1<<uint(n) - 1
}

// EachCombination calls yield with every non-empty subset of {0..n-1}, smallest subsets
// first and lexicographically within one size. Indices are ascending. The slice passed to
// yield is reused between calls; copy it to keep it. Enumeration stops when yield returns false.
func EachCombination(n int, yield func([]int) bool) {
	for k := 1; k <= n; k++ {
		idx := make([]int, k)
		for i := range idx {
			idx[i] = i
		}
		for {
			if !yield(idx) {
				return
			}
			// rightmost index that can still move
			i := k - 1
			for i >= 0 && idx[i] == n-k+i {
				i--
			}
			if i < 0 {
				break
			}
			idx[i]++
			for j := i + 1; j < k; j++ {
				idx[j] = idx[j-1] + 1
			}
		}
	}
}

// Combinations materializes EachCombination.
func Combinations(n int) [][]int {
	var out [][]int
	EachCombination(n, func(c []int) bool {
		out = append(out, append([]int(nil), c...))
		return true
	})
	return out
}
