package tools

// Catalog returns every operation, grouped by resource area. The result is
// built fresh on each call; callers own the slice.
func Catalog() []Tool {
	groups := [][]Tool{
		projectTools(),
		membershipTools(),
		categoryTools(),
		issueTools(),
		relationTools(),
		journalTools(),
		attachmentTools(),
		fileTools(),
		userTools(),
		myAccountTools(),
		groupTools(),
		timeEntryTools(),
		versionTools(),
		wikiTools(),
		newsTools(),
		searchTools(),
		enumerationTools(),
		roleTools(),
	}

	var all []Tool
	for _, g := range groups {
		all = append(all, g...)
	}
	return all
}

// Descriptors returns the descriptors of tools in order.
func Descriptors(tools []Tool) []Descriptor {
	out := make([]Descriptor, len(tools))
	for i, t := range tools {
		out[i] = t.Descriptor
	}
	return out
}
