package query

import "strings"

type QueryName string

const (
	QueryCurrentUser   QueryName = "getCurrentUser"
	QueryRecentPosts   QueryName = "getRecentPosts"
	QueryInfinitePosts QueryName = "getInfinitePosts"
	QuerySearchPosts   QueryName = "searchPosts"
	QueryPostByID      QueryName = "getPostById"
	QueryUsers         QueryName = "getUsers"
	QueryUserByID      QueryName = "getUserById"
)

const keySep = "|"

// Key identifies one cached query: its name and arguments. Invalidating a
// key also invalidates every key that extends its arguments, so views
// derived from a record (a user's saves, a profile's posts) are keyed under
// that record.
type Key struct {
	Name QueryName
	Args []string
}

func K(name QueryName, args ...string) Key {
	return Key{Name: name, Args: args}
}

func (k Key) String() string {
	if len(k.Args) == 0 {
		return string(k.Name)
	}
	escaped := make([]string, len(k.Args))
	for i, a := range k.Args {
		escaped[i] = argEscaper.Replace(a)
	}
	return string(k.Name) + keySep + strings.Join(escaped, keySep)
}

var argEscaper = strings.NewReplacer(`%`, `%25`, keySep, `%7C`)

type MutationName string

const (
	MutationCreateAccount   MutationName = "createUserAccount"
	MutationSignIn          MutationName = "signInAccount"
	MutationSignOut         MutationName = "signOutAccount"
	MutationCreatePost      MutationName = "createPost"
	MutationUpdatePost      MutationName = "updatePost"
	MutationDeletePost      MutationName = "deletePost"
	MutationLikePost        MutationName = "likePost"
	MutationSavePost        MutationName = "savePost"
	MutationDeleteSavedPost MutationName = "deleteSavedPost"
	MutationUpdateUser      MutationName = "updateUser"
)

// Vars are the arguments a mutation was run with, as far as invalidation
// needs them.
type Vars struct {
	AccountID string
	PostID    string
	UserID    string
}

// Target names a query made stale by a mutation. Arg selects the entry;
// nil, or an empty result, marks every entry of the query stale.
type Target struct {
	Query QueryName
	Arg   func(Vars) string
}

var (
	postByID    = Target{QueryPostByID, func(v Vars) string { return v.PostID }}
	recentPosts = Target{QueryRecentPosts, nil}
	currentUser = Target{QueryCurrentUser, func(v Vars) string { return v.AccountID }}
	userByID    = Target{QueryUserByID, func(v Vars) string { return v.UserID }}
)

// Invalidations is the complete mutation → stale query table.
var Invalidations = map[MutationName][]Target{
	MutationCreateAccount:   nil,
	MutationSignIn:          nil,
	MutationSignOut:         nil,
	MutationLikePost:        {postByID, recentPosts, currentUser},
	MutationSavePost:        {postByID, recentPosts, currentUser},
	MutationDeleteSavedPost: {postByID, recentPosts, currentUser},
	MutationCreatePost:      {recentPosts},
	MutationUpdatePost:      {postByID, recentPosts},
	MutationDeletePost:      {postByID, recentPosts},
	MutationUpdateUser:      {currentUser, userByID},
}

// Invalidates resolves the keys made stale by a successful m run with v.
func Invalidates(m MutationName, v Vars) []Key {
	targets := Invalidations[m]
	keys := make([]Key, 0, len(targets))
	for _, t := range targets {
		if t.Arg == nil {
			keys = append(keys, K(t.Query))
			continue
		}
		if arg := t.Arg(v); arg != "" {
			keys = append(keys, K(t.Query, arg))
		} else {
			keys = append(keys, K(t.Query))
		}
	}
	return keys
}
