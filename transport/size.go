package transport

// CheckSize reports a response whose length differs from the one the caller
// asked for. The mismatch is logged (if SizeWarnings) and passed to
// OnSizeMismatch; the returned error is non-nil only when StrictSize is set.
func (c *Config) CheckSize(op string, expected, actual int) error {
	if expected == actual {
		return nil
	}

	mismatch := SizeMismatchError{Operation: op, Expected: expected, Actual: actual}

	if c.SizeWarnings && c.Logger != nil {
		c.Logger.Warn("response size mismatch",
			"operation", op,
			"expected", expected,
			"actual", actual,
		)
	}
	if c.OnSizeMismatch != nil {
		c.OnSizeMismatch(mismatch)
	}
	if c.StrictSize {
		return &mismatch
	}
	return nil
}
