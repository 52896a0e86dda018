package gitver

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/memfs"
	"github.com/go-git/go-billy/v5/osfs"
	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/cache"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/plumbing/storer"
	"github.com/go-git/go-git/v5/storage/filesystem"
	"github.com/go-git/go-git/v5/storage/memory"
)

var testTime = time.Date(2022, time.March, 4, 5, 6, 7, 0, time.UTC)

var testSignature = &object.Signature{
	Name:  "test",
	Email: "test@example.com",
	When:  testTime,
}

// testRepoCreate creates a new in-memory git repository for testing
func testRepoCreate() (*git.Repository, error) {
	storage := memory.NewStorage()
	fs := memfs.New()
	return git.Init(storage, fs)
}

// testRepoFSCreate creates a new filesystem-based git repository with a
// .git directory for testing
func testRepoFSCreate(path string) (*git.Repository, error) {
	fs := osfs.New(path)
	dot, err := fs.Chroot(git.GitDirName)
	if err != nil {
		return nil, err
	}
	storage := filesystem.NewStorage(dot, cache.NewObjectLRUDefault())
	return git.Init(storage, fs)
}

// testRepoSingleCommit adds a single commit to the repository and returns the commit hash
func testRepoSingleCommit(repo *git.Repository) (plumbing.Hash, error) {
	return testRepoCommit(repo, "test.txt", "Hello world")
}

// testRepoCommit writes filename and commits it
func testRepoCommit(repo *git.Repository, filename, content string) (plumbing.Hash, error) {
	workTree, err := repo.Worktree()
	if err != nil {
		return plumbing.ZeroHash, err
	}

	err = writeFile(workTree.Filesystem, filename, content)
	if err != nil {
		return plumbing.ZeroHash, err
	}

	_, err = workTree.Add(filename)
	if err != nil {
		return plumbing.ZeroHash, err
	}

	return workTree.Commit("Commit "+filename, &git.CommitOptions{Author: testSignature})
}

// testRepoCommits adds n commits and returns their hashes, oldest first
func testRepoCommits(repo *git.Repository, n int) ([]plumbing.Hash, error) {
	hashes := make([]plumbing.Hash, 0, n)
	for i := 0; i < n; i++ {
		name := fmt.Sprintf("file_%d.txt", i)
		hash, err := testRepoCommit(repo, name, "Content for "+name)
		if err != nil {
			return nil, err
		}
		hashes = append(hashes, hash)
	}
	return hashes, nil
}

// testRepoAnnotatedTag creates an annotated tag with the given tagger time
func testRepoAnnotatedTag(repo *git.Repository, name string, commit plumbing.Hash, when time.Time) error {
	_, err := repo.CreateTag(name, commit, &git.CreateTagOptions{
		Tagger:  &object.Signature{Name: "test", Email: "test@example.com", When: when},
		Message: "Release " + name,
	})
	return err
}

// testRepoCheckout detaches HEAD at commit
func testRepoCheckout(repo *git.Repository, commit plumbing.Hash) error {
	workTree, err := repo.Worktree()
	if err != nil {
		return err
	}
	return workTree.Checkout(&git.CheckoutOptions{Hash: commit})
}

// testRepoBranch creates and checks out a branch at HEAD
func testRepoBranch(repo *git.Repository, name string) error {
	workTree, err := repo.Worktree()
	if err != nil {
		return err
	}
	return workTree.Checkout(&git.CheckoutOptions{
		Branch: plumbing.NewBranchReferenceName(name),
		Create: true,
	})
}

// writeFile writes content to a file in the given filesystem
func writeFile(fs billy.Filesystem, filename, content string) error {
	file, err := fs.Create(filename)
	if err != nil {
		return err
	}
	defer file.Close()

	_, err = file.Write([]byte(content))
	return err
}

// fakeStore is a RefStore backed by fixed values
type fakeStore struct {
	root      string
	head      string
	branch    string
	tags      []TagRef
	parents   map[string]string
	times     map[string]time.Time
	clean     bool
	shallow   bool
	tagsCalls int
}

func (f *fakeStore) RootDirectory() string { return f.root }

func (f *fakeStore) Head() (string, bool, error) { return f.head, f.head != "", nil }

func (f *fakeStore) Branch() (string, bool, error) { return f.branch, f.branch != "", nil }

func (f *fakeStore) Tags() ([]TagRef, error) {
	f.tagsCalls++
	return f.tags, nil
}

func (f *fakeStore) WalkFirstParent(from string, fn func(commit string) error) error {
	for commit := from; commit != ""; commit = f.parents[commit] {
		if err := fn(commit); err != nil {
			if err == storer.ErrStop {
				return nil
			}
			return err
		}
	}
	return nil
}

func (f *fakeStore) CommitTime(commit string) (time.Time, error) { return f.times[commit], nil }

func (f *fakeStore) IsClean() (bool, error) { return f.clean, nil }

func (f *fakeStore) IsShallow() (bool, error) { return f.shallow, nil }

// testCommitID returns a 40 character commit id made of c
func testCommitID(c string) string {
	return strings.Repeat(c, 40)
}
