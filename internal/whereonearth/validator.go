package whereonearth

// CheckSubmitter reports ErrDuplicateSubmitter when the challenge already
// holds an entry from the user. Users are matched by id, or by display name
// when the chat surface gave no stable id.
func CheckSubmitter(c *Challenge, userID, userName string) error {
	for _, e := range c.Entries {
		if userID != "" && e.UserID == userID {
			return ErrDuplicateSubmitter
		}
		if (userID == "" || e.UserID == "") && userName != "" && e.UserName == userName {
			return ErrDuplicateSubmitter
		}
	}
	return nil
}

// ValidateEntry decides whether a geocoded guess may be appended. Rules are
// checked in order: one entry per user, then no two entries resolving to the
// same place name.
func ValidateEntry(c *Challenge, userID, userName string, resolved Place) error {
	if err := CheckSubmitter(c, userID, userName); err != nil {
		return err
	}
	for _, e := range c.Entries {
		if e.ResolvedName == resolved.Name {
			return ErrDuplicateAnswer
		}
	}
	return nil
}
