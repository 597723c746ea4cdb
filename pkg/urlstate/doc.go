// Package urlstate binds typed application values to keys of the URL query
// string.
//
// A Scope owns one commit queue and one committer. Bindings created from the
// scope read their initial value from the current location, apply writes to
// local state immediately, and enqueue the dehydrated value; the committer
// merges all writes made within the quiet window into a single navigation.
//
//	scope := urlstate.NewScope(urlstate.Config{Location: hist})
//	sort := urlstate.Bind(scope, urlstate.Definition[string]{
//	    Key:       "sort",
//	    Default:   "newest",
//	    Validator: urlstate.OneOf("newest", "oldest", "price"),
//	})
//	page := urlstate.Bind(scope, urlstate.Definition[int]{Key: "page", Default: 1})
//
//	sort.Set("price")
//	page.Set(1) // equal to the default: "page" is removed from the URL
//
// Hosts call Scope.Observe after every navigation. A binding only adopts the
// location's value while no writes are pending; until the queue drains its own
// optimistic value wins.
//
// Invalid input never fails: values that do not hydrate or do not pass the
// validator are replaced by the definition's default.
package urlstate
