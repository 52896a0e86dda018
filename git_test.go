package gitver

import (
	"os"
	"testing"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/stretchr/testify/require"
)

func TestGitRefStore(t *testing.T) {
	t.Run("Empty repository", func(t *testing.T) {
		repo, err := testRepoCreate()
		require.NoError(t, err)
		store := NewGitRefStore(repo)

		_, ok, err := store.Head()
		require.NoError(t, err)
		require.False(t, ok)

		branch, ok, err := store.Branch()
		require.NoError(t, err)
		require.True(t, ok)
		require.Equal(t, "master", branch)

		tags, err := store.Tags()
		require.NoError(t, err)
		require.Empty(t, tags)

		shallow, err := store.IsShallow()
		require.NoError(t, err)
		require.False(t, shallow)
	})

	t.Run("Branch and head", func(t *testing.T) {
		repo, err := testRepoCreate()
		require.NoError(t, err)
		head, err := testRepoSingleCommit(repo)
		require.NoError(t, err)
		require.NoError(t, testRepoBranch(repo, "feature/login"))
		store := NewGitRefStore(repo)

		commit, ok, err := store.Head()
		require.NoError(t, err)
		require.True(t, ok)
		require.Equal(t, head.String(), commit)

		branch, ok, err := store.Branch()
		require.NoError(t, err)
		require.True(t, ok)
		require.Equal(t, "feature/login", branch)

		ts, err := store.CommitTime(commit)
		require.NoError(t, err)
		require.True(t, testTime.Equal(ts))
		require.Equal(t, time.UTC, ts.Location())
	})

	t.Run("Detached head", func(t *testing.T) {
		repo, err := testRepoCreate()
		require.NoError(t, err)
		hashes, err := testRepoCommits(repo, 2)
		require.NoError(t, err)
		require.NoError(t, testRepoCheckout(repo, hashes[0]))
		store := NewGitRefStore(repo)

		commit, ok, err := store.Head()
		require.NoError(t, err)
		require.True(t, ok)
		require.Equal(t, hashes[0].String(), commit)

		_, ok, err = store.Branch()
		require.NoError(t, err)
		require.False(t, ok)
	})

	t.Run("Tags are peeled", func(t *testing.T) {
		repo, err := testRepoCreate()
		require.NoError(t, err)
		head, err := testRepoSingleCommit(repo)
		require.NoError(t, err)

		_, err = repo.CreateTag("v1.0.0", head, nil)
		require.NoError(t, err)
		require.NoError(t, testRepoAnnotatedTag(repo, "v1.1.0", head, testTime))

		tags, err := NewGitRefStore(repo).Tags()
		require.NoError(t, err)
		require.Len(t, tags, 2)

		byName := map[string]TagRef{}
		for _, tag := range tags {
			byName[tag.Name] = tag
		}
		require.Equal(t, head.String(), byName["v1.0.0"].Commit)
		require.False(t, byName["v1.0.0"].Annotated)
		require.Equal(t, head.String(), byName["v1.1.0"].Commit)
		require.True(t, byName["v1.1.0"].Annotated)
		require.True(t, testTime.Equal(byName["v1.1.0"].TaggerTime))
	})

	t.Run("First parent walk", func(t *testing.T) {
		repo, err := testRepoCreate()
		require.NoError(t, err)
		hashes, err := testRepoCommits(repo, 3)
		require.NoError(t, err)

		var walked []string
		err = NewGitRefStore(repo).WalkFirstParent(hashes[2].String(), func(commit string) error {
			walked = append(walked, commit)
			return nil
		})
		require.NoError(t, err)
		require.Equal(t, []string{hashes[2].String(), hashes[1].String(), hashes[0].String()}, walked)
	})

	t.Run("Worktree status", func(t *testing.T) {
		repo, err := testRepoCreate()
		require.NoError(t, err)
		_, err = testRepoSingleCommit(repo)
		require.NoError(t, err)
		store := NewGitRefStore(repo)

		clean, err := store.IsClean()
		require.NoError(t, err)
		require.True(t, clean)

		workTree, err := repo.Worktree()
		require.NoError(t, err)
		require.NoError(t, writeFile(workTree.Filesystem, "test.txt", "changed"))

		clean, err = store.IsClean()
		require.NoError(t, err)
		require.False(t, clean)
	})
}

func TestWorkTreeIsDirtyFilesystem(t *testing.T) {
	dir := t.TempDir()
	repo, err := testRepoFSCreate(dir)
	require.NoError(t, err)
	head, err := testRepoSingleCommit(repo)
	require.NoError(t, err)
	require.NotEmpty(t, head)

	t.Run("Working tree is clean", func(t *testing.T) {
		dirty, err := workTreeIsDirty(repo)
		require.NoError(t, err)
		require.False(t, dirty)
	})

	workTree, err := repo.Worktree()
	require.NoError(t, err)
	require.NoError(t, writeFile(workTree.Filesystem, "hello-world", "Hello World 2"))

	t.Run("Working tree is dirty", func(t *testing.T) {
		dirty, err := workTreeIsDirty(repo)
		require.NoError(t, err)
		require.True(t, dirty)

		clean, err := NewGitRefStore(repo).IsClean()
		require.NoError(t, err)
		require.False(t, clean)
	})

	t.Run("Root directory", func(t *testing.T) {
		require.Equal(t, dir, NewGitRefStore(repo).RootDirectory())
	})
}

func TestOpenRepository(t *testing.T) {
	t.Run("Valid git repository", func(t *testing.T) {
		dir := t.TempDir()

		// Initialize a git repo
		_, err := git.PlainInit(dir, false)
		require.NoError(t, err)

		repo, err := OpenRepository(dir)
		require.NoError(t, err)
		require.NotNil(t, repo)
	})

	t.Run("Non-git directory", func(t *testing.T) {
		dir, err := os.MkdirTemp("", "non-git")
		require.NoError(t, err)
		defer os.RemoveAll(dir)

		_, err = OpenRepository(dir)
		require.Error(t, err)
	})

	t.Run("Non-existent directory", func(t *testing.T) {
		_, err := OpenRepository("/non/existent/path")
		require.Error(t, err)
	})
}
