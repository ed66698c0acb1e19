package gitdiff

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/storage/filesystem"
)

// ErrNotRepository is returned when no git repository contains the path.
var ErrNotRepository = errors.New("not a git repository")

// errNotCommit marks a pushed object that doesn't peel to a commit, such
// as a tag of a tree or blob.
var errNotCommit = errors.New("object is not a commit")

// ChangeSet is the material handed to the reviewer.
type ChangeSet struct {
	// Title names the change for display.
	Title string

	// Files are the changed paths, de-duplicated, in first-seen order.
	Files []string

	// Patch is the unified diff.
	Patch string
}

// add merges another change set into c.
func (c *ChangeSet) add(other *ChangeSet) {
	seen := make(map[string]bool, len(c.Files))
	for _, f := range c.Files {
		seen[f] = true
	}
	for _, f := range other.Files {
		if !seen[f] {
			seen[f] = true
			c.Files = append(c.Files, f)
		}
	}

	if other.Patch != "" {
		if c.Patch != "" && !strings.HasSuffix(c.Patch, "\n") {
			c.Patch += "\n"
		}
		c.Patch += other.Patch
	}

	switch {
	case c.Title == "":
		c.Title = other.Title
	case other.Title != "":
		c.Title += ", " + other.Title
	}
}

// Repo wraps a go-git repository.
type Repo struct {
	repo     *git.Repository
	workTree string
}

// Open finds the repository containing path, walking up to the nearest
// .git like git itself does.
func Open(path string) (*Repo, error) {
	repo, err := git.PlainOpenWithOptions(path, &git.PlainOpenOptions{
		DetectDotGit:          true,
		EnableDotGitCommonDir: true,
	})
	if errors.Is(err, git.ErrRepositoryNotExists) {
		return nil, fmt.Errorf("%w: %s", ErrNotRepository, path)
	}
	if err != nil {
		return nil, fmt.Errorf("open repository: %w", err)
	}

	r := New(repo)
	if wt, err := repo.Worktree(); err == nil {
		r.workTree = wt.Filesystem.Root()
	}

	return r, nil
}

// New wraps an already opened repository.
func New(repo *git.Repository) *Repo {
	return &Repo{repo: repo}
}

// WorkTree returns the root of the work tree, or "" for bare or in-memory
// repositories.
func (r *Repo) WorkTree() string {
	return r.workTree
}

// GitDir returns the on-disk .git directory.
func (r *Repo) GitDir() (string, error) {
	fsStorage, ok := r.repo.Storer.(*filesystem.Storage)
	if !ok {
		return "", fmt.Errorf("repository has no on-disk git dir")
	}

	return filepath.Clean(fsStorage.Filesystem().Root()), nil
}

// ResolveCommit resolves a revision (sha, branch, tag, HEAD~2, ...) to a
// commit.
func (r *Repo) ResolveCommit(rev string) (*object.Commit, error) {
	hash, err := r.repo.ResolveRevision(plumbing.Revision(rev))
	if err != nil {
		return nil, fmt.Errorf("resolve %q: %w", rev, err)
	}

	commit, err := r.repo.CommitObject(*hash)
	if err != nil {
		return nil, fmt.Errorf("load commit %s: %w", hash, err)
	}

	return commit, nil
}

// DefaultBase picks the revision a manual review compares against: the
// remote's default branch if known, else a local main or master.
func (r *Repo) DefaultBase() (string, error) {
	for _, rev := range []string{
		"origin/HEAD", "origin/main", "origin/master", "main", "master",
	} {
		if _, err := r.repo.ResolveRevision(plumbing.Revision(rev)); err == nil {
			return rev, nil
		}
	}

	return "", fmt.Errorf("no default base branch found; pass one " +
		"explicitly")
}

// DiffRange returns the change from base to head. With mergeBase set, base
// is first replaced by the merge base of the two, matching
// `git diff base...head`.
func (r *Repo) DiffRange(ctx context.Context, base, head string,
	mergeBase bool) (*ChangeSet, error) {

	headCommit, err := r.ResolveCommit(head)
	if err != nil {
		return nil, err
	}
	baseCommit, err := r.ResolveCommit(base)
	if err != nil {
		return nil, err
	}

	if mergeBase {
		bases, err := baseCommit.MergeBase(headCommit)
		if err != nil {
			return nil, fmt.Errorf("merge base: %w", err)
		}
		if len(bases) > 0 {
			baseCommit = bases[0]
		}
	}

	baseTree, err := baseCommit.Tree()
	if err != nil {
		return nil, fmt.Errorf("load tree: %w", err)
	}

	cs, err := r.diffTrees(ctx, baseTree, headCommit)
	if err != nil {
		return nil, err
	}
	cs.Title = fmt.Sprintf("%s...%s", base, head)

	return cs, nil
}

// CollectPush resolves every pushed ref to the change it introduces on the
// remote and merges the results.
func (r *Repo) CollectPush(ctx context.Context, remote string,
	updates []PushUpdate) (*ChangeSet, error) {

	total := &ChangeSet{}
	for _, u := range updates {
		if u.IsDelete() {
			log.Debugf("Skipping deletion of %s", u.RemoteRef)
			continue
		}

		cs, err := r.diffUpdate(ctx, remote, u)
		if errors.Is(err, errNotCommit) {
			log.Debugf("Skipping %s: %v", u.LocalRef, err)
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("%s: %w", u.LocalRef, err)
		}

		log.Debugf("Push %s -> %s: %d file(s) changed", u.LocalRef,
			u.RemoteRef, len(cs.Files))

		total.add(cs)
	}

	return total, nil
}

// diffUpdate computes the change for one pushed ref.
func (r *Repo) diffUpdate(ctx context.Context, remote string,
	u PushUpdate) (*ChangeSet, error) {

	head, err := r.peelCommit(plumbing.NewHash(u.LocalSHA))
	if err != nil {
		return nil, fmt.Errorf("load pushed commit %s: %w",
			u.LocalSHA, err)
	}

	var baseTree *object.Tree
	if !u.IsNewRef() {
		remoteCommit, err := r.peelCommit(plumbing.NewHash(u.RemoteSHA))
		if err == nil {
			baseTree, err = remoteCommit.Tree()
			if err != nil {
				return nil, fmt.Errorf("load tree: %w", err)
			}
		} else {
			// The remote moved to a commit we haven't fetched.
			log.Debugf("Remote commit %s not local (%v), using "+
				"merge base", u.RemoteSHA, err)
		}
	}

	if baseTree == nil {
		baseTree, err = r.forkPointTree(remote, head)
		if err != nil {
			return nil, err
		}
	}

	cs, err := r.diffTrees(ctx, baseTree, head)
	if err != nil {
		return nil, err
	}

	target := shortRef(u.RemoteRef)
	if remote != "" {
		target = remote + "/" + target
	}
	cs.Title = fmt.Sprintf("%s -> %s", shortRef(u.LocalRef), target)

	return cs, nil
}

// peelCommit loads the commit an object id names, following annotated
// tags (and tags of tags) down to their target.
func (r *Repo) peelCommit(hash plumbing.Hash) (*object.Commit, error) {
	obj, err := r.repo.Object(plumbing.AnyObject, hash)
	if err != nil {
		return nil, err
	}

	for {
		switch o := obj.(type) {
		case *object.Commit:
			return o, nil

		case *object.Tag:
			if o.TargetType != plumbing.CommitObject &&
				o.TargetType != plumbing.TagObject {

				return nil, fmt.Errorf("%w: tag %s points at a %s",
					errNotCommit, o.Name, o.TargetType)
			}

			obj, err = r.repo.Object(o.TargetType, o.Target)
			if err != nil {
				return nil, fmt.Errorf("load tag target %s: %w",
					o.Target, err)
			}

		default:
			return nil, fmt.Errorf("%w: %s is a %s", errNotCommit,
				hash, obj.Type())
		}
	}
}

// forkPointTree finds the tree a new branch forked from: the merge base
// with the remote's default branch, or the empty tree when there is none.
func (r *Repo) forkPointTree(remote string,
	head *object.Commit) (*object.Tree, error) {

	var candidates []plumbing.ReferenceName
	if remote != "" {
		for _, name := range []string{"HEAD", "main", "master"} {
			candidates = append(candidates, plumbing.NewRemoteReferenceName(
				remote, name,
			))
		}
	}
	candidates = append(candidates,
		plumbing.NewBranchReferenceName("main"),
		plumbing.NewBranchReferenceName("master"),
	)

	for _, name := range candidates {
		ref, err := r.repo.Reference(name, true)
		if err != nil {
			continue
		}

		other, err := r.repo.CommitObject(ref.Hash())
		if err != nil {
			continue
		}

		bases, err := head.MergeBase(other)
		if err != nil || len(bases) == 0 {
			continue
		}

		log.Debugf("Using merge base %s with %s", bases[0].Hash, name)

		return bases[0].Tree()
	}

	log.Debugf("No fork point for %s, diffing against the empty tree",
		head.Hash)

	return &object.Tree{}, nil
}

// diffTrees diffs base against the head commit's tree.
func (r *Repo) diffTrees(ctx context.Context, base *object.Tree,
	head *object.Commit) (*ChangeSet, error) {

	headTree, err := head.Tree()
	if err != nil {
		return nil, fmt.Errorf("load tree: %w", err)
	}

	changes, err := object.DiffTreeWithOptions(
		ctx, base, headTree, object.DefaultDiffTreeOptions,
	)
	if err != nil {
		return nil, fmt.Errorf("diff trees: %w", err)
	}

	cs := &ChangeSet{}
	for _, ch := range changes {
		cs.Files = append(cs.Files, changeName(ch))
	}
	if len(changes) == 0 {
		return cs, nil
	}

	patch, err := changes.PatchContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("render patch: %w", err)
	}
	cs.Patch = patch.String()

	return cs, nil
}

// changeName returns the path a change leaves behind, or the removed path
// for deletions.
func changeName(ch *object.Change) string {
	if ch.To.Name != "" {
		return ch.To.Name
	}

	return ch.From.Name
}
