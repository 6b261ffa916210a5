package offer

// ThroughputBucket caps the share of the provisioned throughput a workload
// bucket may consume.
type ThroughputBucket struct {
	ID                      int `json:"id"`
	MaxThroughputPercentage int `json:"maxThroughputPercentage"`
}

// FilterBuckets drops buckets at exactly 100%, which the backend treats as
// unset, and returns the remaining ones in their original order.
func FilterBuckets(buckets []ThroughputBucket) []ThroughputBucket {
	var out []ThroughputBucket
	for _, b := range buckets {
		if b.MaxThroughputPercentage == 100 {
			continue
		}
		out = append(out, b)
	}
	return out
}

// BucketsEqual compares two bucket lists element by element.
func BucketsEqual(a, b []ThroughputBucket) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// CloneBuckets returns a copy of the bucket list, preserving nil.
func CloneBuckets(buckets []ThroughputBucket) []ThroughputBucket {
	if buckets == nil {
		return nil
	}
	out := make([]ThroughputBucket, len(buckets))
	copy(out, buckets)
	return out
}
