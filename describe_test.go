package gitver

import (
	"errors"
	"testing"

	"github.com/go-git/go-git/v5/plumbing"
	"github.com/stretchr/testify/require"
)

func TestDescribe(t *testing.T) {
	t.Run("Empty repository", func(t *testing.T) {
		repo, err := testRepoCreate()
		require.NoError(t, err)

		d, err := Describe(NewGitRefStore(repo), "", MustCompilePattern(".*"), nil)
		require.NoError(t, err)
		require.Equal(t, GitDescription{Commit: NoCommit, Tag: "root", Distance: 0}, d)
		require.Equal(t, "root-0-g0000000", d.String())
	})

	t.Run("No tags counts all ancestors", func(t *testing.T) {
		repo, err := testRepoCreate()
		require.NoError(t, err)
		hashes, err := testRepoCommits(repo, 3)
		require.NoError(t, err)

		head := hashes[2].String()
		d, err := Describe(NewGitRefStore(repo), head, MustCompilePattern(".*"), nil)
		require.NoError(t, err)
		require.Equal(t, "root", d.Tag)
		require.Equal(t, 3, d.Distance)
		require.Equal(t, head, d.Commit)
	})

	t.Run("Nearest matching tag", func(t *testing.T) {
		repo, err := testRepoCreate()
		require.NoError(t, err)
		hashes, err := testRepoCommits(repo, 4)
		require.NoError(t, err)

		_, err = repo.CreateTag("v1.0.0", hashes[0], nil)
		require.NoError(t, err)
		_, err = repo.CreateTag("v1.1.0", hashes[1], nil)
		require.NoError(t, err)
		_, err = repo.CreateTag("latest", hashes[2], nil)
		require.NoError(t, err)

		store := NewGitRefStore(repo)
		tags, err := store.Tags()
		require.NoError(t, err)
		tagMap := tagsByCommit(tags)

		head := hashes[3].String()
		d, err := Describe(store, head, MustCompilePattern(`v\d+\.\d+\.\d+`), tagMap)
		require.NoError(t, err)
		require.Equal(t, GitDescription{Commit: head, Tag: "v1.1.0", Distance: 2}, d)
		require.Equal(t, "v1.1.0-2-g"+head[:7], d.String())

		d, err = Describe(store, head, MustCompilePattern(".*"), tagMap)
		require.NoError(t, err)
		require.Equal(t, "latest", d.Tag)
		require.Equal(t, 1, d.Distance)
	})

	t.Run("Pattern must match the whole tag", func(t *testing.T) {
		repo, err := testRepoCreate()
		require.NoError(t, err)
		hashes, err := testRepoCommits(repo, 1)
		require.NoError(t, err)
		_, err = repo.CreateTag("v1.0.0-beta", hashes[0], nil)
		require.NoError(t, err)

		store := NewGitRefStore(repo)
		tags, err := store.Tags()
		require.NoError(t, err)

		d, err := Describe(store, hashes[0].String(), MustCompilePattern(`v\d+\.\d+\.\d+`), tagsByCommit(tags))
		require.NoError(t, err)
		require.Equal(t, "root", d.Tag)
		require.Equal(t, 1, d.Distance)
	})

	t.Run("Tag on head has distance zero", func(t *testing.T) {
		repo, err := testRepoCreate()
		require.NoError(t, err)
		hashes, err := testRepoCommits(repo, 2)
		require.NoError(t, err)
		require.NoError(t, testRepoAnnotatedTag(repo, "v2.0.0", hashes[1], testTime))

		store := NewGitRefStore(repo)
		tags, err := store.Tags()
		require.NoError(t, err)

		d, err := Describe(store, hashes[1].String(), MustCompilePattern(".*"), tagsByCommit(tags))
		require.NoError(t, err)
		require.Equal(t, "v2.0.0", d.Tag)
		require.Equal(t, 0, d.Distance)
	})

	t.Run("Shallow repository without match", func(t *testing.T) {
		repo, err := testRepoCreate()
		require.NoError(t, err)
		hashes, err := testRepoCommits(repo, 2)
		require.NoError(t, err)
		require.NoError(t, repo.Storer.SetShallow([]plumbing.Hash{hashes[0]}))

		_, err = Describe(NewGitRefStore(repo), hashes[1].String(), MustCompilePattern(".*"), nil)
		require.Error(t, err)
		require.True(t, errors.Is(err, ErrShallowRepository))
	})

	t.Run("Shallow repository with match", func(t *testing.T) {
		repo, err := testRepoCreate()
		require.NoError(t, err)
		hashes, err := testRepoCommits(repo, 2)
		require.NoError(t, err)
		_, err = repo.CreateTag("v1", hashes[0], nil)
		require.NoError(t, err)
		require.NoError(t, repo.Storer.SetShallow([]plumbing.Hash{hashes[0]}))

		store := NewGitRefStore(repo)
		tags, err := store.Tags()
		require.NoError(t, err)

		d, err := Describe(store, hashes[1].String(), MustCompilePattern(".*"), tagsByCommit(tags))
		require.NoError(t, err)
		require.Equal(t, "v1", d.Tag)
		require.Equal(t, 1, d.Distance)
	})

	t.Run("Stops walking at the first match", func(t *testing.T) {
		head := testCommitID("c")
		store := &fakeStore{
			head: head,
			parents: map[string]string{
				head:              testCommitID("b"),
				testCommitID("b"): testCommitID("a"),
			},
		}
		walked := 0
		counting := &countingStore{fakeStore: store, walked: &walked}
		tagMap := map[string][]string{testCommitID("b"): {"v1"}, testCommitID("a"): {"v0"}}

		d, err := Describe(counting, head, MustCompilePattern(".*"), tagMap)
		require.NoError(t, err)
		require.Equal(t, "v1", d.Tag)
		require.Equal(t, 1, d.Distance)
		require.Equal(t, 2, walked)
	})
}

type countingStore struct {
	*fakeStore
	walked *int
}

func (c *countingStore) WalkFirstParent(from string, fn func(commit string) error) error {
	return c.fakeStore.WalkFirstParent(from, func(commit string) error {
		*c.walked++
		return fn(commit)
	})
}
