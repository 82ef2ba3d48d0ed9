package fmodel

// GetKey implements the feature-store Item contract.
func (f FeatureFlag) GetKey() string { return f.Key }

// GetVersion implements the feature-store Item contract.
func (f FeatureFlag) GetVersion() int { return f.Version }

// IsDeleted implements the feature-store Item contract.
func (f FeatureFlag) IsDeleted() bool { return f.Deleted }

// GetKey implements the feature-store Item contract.
func (s Segment) GetKey() string { return s.Key }

// GetVersion implements the feature-store Item contract.
func (s Segment) GetVersion() int { return s.Version }

// IsDeleted implements the feature-store Item contract.
func (s Segment) IsDeleted() bool { return s.Deleted }
