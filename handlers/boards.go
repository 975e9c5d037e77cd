// microboard/handlers/boards.go
package handlers

import (
	"net/http"

	"microboard/config"
	"microboard/database"
	"microboard/models"

	"github.com/go-chi/chi/v5"
)

// threadView is a thread with its reply preview, as served on board pages.
type threadView struct {
	models.Post
	Replies  []models.Post `json:"replies"`
	RepliesN int           `json:"replies_n"`
}

// boardPageView is the payload for board index, hidden and catalog pages.
type boardPageView struct {
	Board   *models.BoardConfig `json:"board"`
	Threads []threadView        `json:"threads"`
	Page    int                 `json:"page"`
	PageN   int                 `json:"page_n"`
}

// queryBoardID selects the board filter for listing queries. Boards of type
// "main" aggregate across all boards, which the store expresses as an empty
// board filter. This is the single place the filter-selection rule lives.
func queryBoardID(board *models.BoardConfig) string {
	if board.Type == models.BoardTypeMain {
		return ""
	}
	return board.ID
}

// HandleHome lists every board.
func HandleHome(w http.ResponseWriter, r *http.Request, app App) {
	boards, err := app.DB().ListBoards()
	if err != nil {
		respondError(w, app, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"boards": boards}, app)
}

// HandleBoardPage serves one page of a board's thread index, each thread
// carrying a bounded chronological reply preview.
func HandleBoardPage(w http.ResponseWriter, r *http.Request, app App) {
	board, err := app.DB().GetBoard(chi.URLParam(r, "boardID"))
	if err != nil {
		respondError(w, app, err)
		return
	}
	session := sessionID(r)
	page := parsePage(r)

	offset, err := database.PageOffset(page, board.ThreadsPerPage)
	if err != nil {
		respondError(w, app, err)
		return
	}

	filter := database.PostFilter{SessionID: session, BoardID: queryBoardID(board), ParentID: 0}
	threads, err := app.DB().ListPosts(filter, database.BumpedDesc, offset, board.ThreadsPerPage)
	if err != nil {
		respondError(w, app, err)
		return
	}

	views := make([]threadView, 0, len(threads))
	for _, t := range threads {
		replies, err := app.DB().ListPreviewPosts(session, t.BoardID, t.PostID, board.PostsPerPreview)
		if err != nil {
			respondError(w, app, err)
			return
		}
		repliesN, err := app.DB().CountPosts(database.PostFilter{SessionID: session, BoardID: t.BoardID, ParentID: t.PostID})
		if err != nil {
			respondError(w, app, err)
			return
		}
		views = append(views, threadView{Post: t, Replies: replies, RepliesN: repliesN})
	}

	total, err := app.DB().CountPosts(filter)
	if err != nil {
		respondError(w, app, err)
		return
	}
	pageN, err := database.PageCount(total, board.ThreadsPerPage)
	if err != nil {
		respondError(w, app, err)
		return
	}

	respondJSON(w, http.StatusOK, boardPageView{Board: board, Threads: views, Page: page, PageN: pageN}, app)
}

// HandleHiddenPage lists the threads this session has hidden, so the viewer
// can un-hide them. Reply previews are not shown for hidden threads.
func HandleHiddenPage(w http.ResponseWriter, r *http.Request, app App) {
	board, err := app.DB().GetBoard(chi.URLParam(r, "boardID"))
	if err != nil {
		respondError(w, app, err)
		return
	}
	session := sessionID(r)
	page := parsePage(r)

	offset, err := database.PageOffset(page, board.ThreadsPerPage)
	if err != nil {
		respondError(w, app, err)
		return
	}

	filter := database.PostFilter{SessionID: session, BoardID: queryBoardID(board), ParentID: 0, HiddenOnly: true}
	threads, err := app.DB().ListPosts(filter, database.BumpedDesc, offset, board.ThreadsPerPage)
	if err != nil {
		respondError(w, app, err)
		return
	}

	views := make([]threadView, 0, len(threads))
	for _, t := range threads {
		repliesN, err := app.DB().CountPosts(database.PostFilter{SessionID: session, BoardID: t.BoardID, ParentID: t.PostID})
		if err != nil {
			respondError(w, app, err)
			return
		}
		views = append(views, threadView{Post: t, Replies: []models.Post{}, RepliesN: repliesN})
	}

	total, err := app.DB().CountPosts(filter)
	if err != nil {
		respondError(w, app, err)
		return
	}
	pageN, err := database.PageCount(total, board.ThreadsPerPage)
	if err != nil {
		respondError(w, app, err)
		return
	}

	respondJSON(w, http.StatusOK, boardPageView{Board: board, Threads: views, Page: page, PageN: pageN}, app)
}

// HandleCatalogPage serves the catalog grid: same ordering as the board
// index, no reply previews, paginated at the catalog page size.
func HandleCatalogPage(w http.ResponseWriter, r *http.Request, app App) {
	board, err := app.DB().GetBoard(chi.URLParam(r, "boardID"))
	if err != nil {
		respondError(w, app, err)
		return
	}
	session := sessionID(r)
	page := parsePage(r)

	offset, err := database.PageOffset(page, board.ThreadsPerCatalogPage)
	if err != nil {
		respondError(w, app, err)
		return
	}

	filter := database.PostFilter{SessionID: session, BoardID: queryBoardID(board), ParentID: 0}
	threads, err := app.DB().ListPosts(filter, database.BumpedDesc, offset, board.ThreadsPerCatalogPage)
	if err != nil {
		respondError(w, app, err)
		return
	}

	views := make([]threadView, 0, len(threads))
	for _, t := range threads {
		repliesN, err := app.DB().CountPosts(database.PostFilter{SessionID: session, BoardID: t.BoardID, ParentID: t.PostID})
		if err != nil {
			respondError(w, app, err)
			return
		}
		views = append(views, threadView{Post: t, Replies: []models.Post{}, RepliesN: repliesN})
	}

	total, err := app.DB().CountPosts(filter)
	if err != nil {
		respondError(w, app, err)
		return
	}
	pageN, err := database.PageCount(total, board.ThreadsPerCatalogPage)
	if err != nil {
		respondError(w, app, err)
		return
	}

	respondJSON(w, http.StatusOK, boardPageView{Board: board, Threads: views, Page: page, PageN: pageN}, app)
}

// HandleThreadPage serves a full thread with its replies in chronological
// order.
func HandleThreadPage(w http.ResponseWriter, r *http.Request, app App) {
	board, err := app.DB().GetBoard(chi.URLParam(r, "boardID"))
	if err != nil {
		respondError(w, app, err)
		return
	}
	threadID, err := parsePostID(chi.URLParam(r, "threadID"))
	if err != nil {
		respondError(w, app, err)
		return
	}

	thread, err := app.DB().GetPost(board.ID, threadID, false)
	if err != nil {
		respondError(w, app, err)
		return
	}
	if !thread.IsThread() {
		respondJSON(w, http.StatusBadRequest, map[string]string{"error": "not a valid thread"}, app)
		return
	}

	session := sessionID(r)
	replies, err := app.DB().ListPosts(
		database.PostFilter{SessionID: session, BoardID: thread.BoardID, ParentID: thread.PostID},
		database.BumpedAsc, 0, config.ThreadReplyLimit)
	if err != nil {
		respondError(w, app, err)
		return
	}

	respondJSON(w, http.StatusOK, threadView{Post: *thread, Replies: replies, RepliesN: len(replies)}, app)
}

// HandlePostPreview serves a single post, used for inline quote previews.
func HandlePostPreview(w http.ResponseWriter, r *http.Request, app App) {
	board, err := app.DB().GetBoard(chi.URLParam(r, "boardID"))
	if err != nil {
		respondError(w, app, err)
		return
	}
	threadID, err := parsePostID(chi.URLParam(r, "threadID"))
	if err != nil {
		respondError(w, app, err)
		return
	}
	postID, err := parsePostID(chi.URLParam(r, "postID"))
	if err != nil {
		respondError(w, app, err)
		return
	}

	post, err := app.DB().GetPost(board.ID, postID, false)
	if err != nil {
		respondError(w, app, err)
		return
	}
	// The post must belong to the thread it was requested under: replies
	// match on parent, thread roots on their own number.
	if post.IsThread() {
		if post.PostID != threadID {
			respondError(w, app, database.ErrNotFound)
			return
		}
	} else if post.ParentID != threadID {
		respondError(w, app, database.ErrNotFound)
		return
	}

	respondJSON(w, http.StatusOK, post, app)
}
