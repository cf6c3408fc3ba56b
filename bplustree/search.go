package bplus

// binarySearch returns the slot of an exact match for target, or -1.
func binarySearch(keys [][]byte, target []byte, cmp func(a, b []byte) int) int {
	low := 0
	high := len(keys) - 1
	for low <= high {
		mid := low + (high-low)/2
		c := cmp(keys[mid], target)
		if c == 0 {
			return mid
		} else if c < 0 {
			low = mid + 1
		} else {
			high = mid - 1
		}
	}
	return -1
}

// upperBound returns the first slot whose key is > target (len(keys) if none).
// Used to pick the child during descent: keys equal to a separator live in
// the right subtree, since a leaf split promotes the right sibling's first key.
func upperBound(keys [][]byte, target []byte, cmp func(a, b []byte) int) int {
	lo, hi := 0, len(keys)
	for lo < hi {
		mid := lo + (hi-lo)/2
		if cmp(keys[mid], target) <= 0 {
			lo = mid + 1
		} else {
			hi = mid
		}
	}
	return lo
}

// lowerBound returns the first slot whose key is >= target (len(keys) if none).
func lowerBound(keys [][]byte, target []byte, cmp func(a, b []byte) int) int {
	lo, hi := 0, len(keys)
	for lo < hi {
		mid := lo + (hi-lo)/2
		if cmp(keys[mid], target) < 0 {
			lo = mid + 1
		} else {
			hi = mid
		}
	}
	return lo
}
