package gitver

import "fmt"

// MatchRule selects the first rule of rules matching the effective ref of
// s. Tag rules apply when HEAD is detached or tags on branches are
// considered; the tags of HEAD are tried lowest version first. Branch rules
// apply when HEAD is on a branch. Without a match the Rev rule, if any,
// yields a commit context. ok is false when nothing matched.
func MatchRule(s *GitSituation, rules RuleSet) (*ResolvedVersionContext, bool, error) {
	var sortedTags []string
	tagsLoaded := false

	for _, rule := range rules.Refs {
		switch rule.Type {
		case RefTypeTag:
			if !s.IsDetached() && !rules.ConsiderTagsOnBranches {
				continue
			}
			if !tagsLoaded {
				tags, err := s.Tags()
				if err != nil {
					return nil, false, fmt.Errorf("reading tags: %w", err)
				}
				sortedTags = sortVersionsAscending(tags)
				tagsLoaded = true
			}
			for _, tag := range sortedTags {
				if rule.Pattern == nil || rule.Pattern.Matches(tag) {
					return &ResolvedVersionContext{
						Commit:  s.Commit(),
						RefType: RefTypeTag,
						RefName: tag,
						Rule:    rule,
					}, true, nil
				}
			}

		case RefTypeBranch:
			branch, ok := s.Branch()
			if !ok {
				continue
			}
			if rule.Pattern == nil || rule.Pattern.Matches(branch) {
				return &ResolvedVersionContext{
					Commit:  s.Commit(),
					RefType: RefTypeBranch,
					RefName: branch,
					Rule:    rule,
				}, true, nil
			}

		default:
			return nil, false, fmt.Errorf("%w: unexpected ref type %s", ErrInvalidConfig, rule.Type)
		}
	}

	if rules.Rev != nil {
		rev := *rules.Rev
		rev.Type = RefTypeCommit
		rev.Pattern = nil
		return &ResolvedVersionContext{
			Commit:  s.Commit(),
			RefType: RefTypeCommit,
			RefName: s.Commit(),
			Rule:    rev,
		}, true, nil
	}
	return nil, false, nil
}
