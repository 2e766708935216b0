// Package dom is the boundary between the tracking client and a page
// document.
//
// Surface lists the few operations personalization and metadata collection
// need: bulk removal by marker class, replacing or inserting markup around
// selector matches, appending scripts and reading <meta> tags. Document
// implements it on github.com/PuerkitoBio/goquery, so hosts that render or
// proxy HTML on the server can run the same personalization the browser
// client would.
//
// Selectors are compiled with github.com/andybalholm/cascadia up front; an
// invalid selector returns ErrInvalidSelector rather than silently matching
// nothing. An empty selector targets <body>.
//
//	doc, err := dom.ParseString(page)
//	if err != nil {
//	    return err
//	}
//	_, _ = doc.InsertAdjacent("#hero", dom.AfterBegin, `<span class="profiler-p13n">Hi</span>`)
//	out, _ := doc.HTML()
package dom
