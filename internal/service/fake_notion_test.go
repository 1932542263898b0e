package service

import (
	"context"
	"fmt"
	"strconv"

	"github.com/jjenkins/notion-digest/internal/model"
)

// fakeNotion is an in-memory NotionAPI. Query results and block children are
// served in pages of the requested size using numeric cursors.
type fakeNotion struct {
	databases   map[string]*model.Database
	dataSources map[string]*model.DataSource
	pages       map[string][]model.Page
	blocks      map[string][]model.Block
	blockPage   int

	errOn map[string]error

	queries     []QueryRequest
	queriedIDs  []string
	schemaCalls int
	blockCalls  int
}

func newFakeNotion() *fakeNotion {
	return &fakeNotion{
		databases:   map[string]*model.Database{},
		dataSources: map[string]*model.DataSource{},
		pages:       map[string][]model.Page{},
		blocks:      map[string][]model.Block{},
		blockPage:   100,
		errOn:       map[string]error{},
	}
}

func (f *fakeNotion) RetrieveDatabase(_ context.Context, id string) (*model.Database, error) {
	if err := f.errOn["database:"+id]; err != nil {
		return nil, err
	}
	db, ok := f.databases[id]
	if !ok {
		return nil, &APIError{Operation: "retrieve_database", Status: 404, Code: "object_not_found"}
	}
	return db, nil
}

func (f *fakeNotion) RetrieveDataSource(_ context.Context, id string) (*model.DataSource, error) {
	f.schemaCalls++
	if err := f.errOn["data_source:"+id]; err != nil {
		return nil, err
	}
	ds, ok := f.dataSources[id]
	if !ok {
		return nil, &APIError{Operation: "retrieve_data_source", Status: 404, Code: "object_not_found"}
	}
	return ds, nil
}

func (f *fakeNotion) QueryDataSource(_ context.Context, id string, req QueryRequest) (*model.PageList, error) {
	f.queries = append(f.queries, req)
	f.queriedIDs = append(f.queriedIDs, id)
	if err := f.errOn["query:"+id]; err != nil {
		return nil, err
	}

	all := f.pages[id]
	start := 0
	if req.StartCursor != "" {
		n, err := strconv.Atoi(req.StartCursor)
		if err != nil {
			return nil, fmt.Errorf("bad cursor %q", req.StartCursor)
		}
		start = n
	}
	end := min(start+req.PageSize, len(all))
	list := &model.PageList{Results: all[start:end]}
	if end < len(all) {
		list.HasMore = true
		list.NextCursor = strconv.Itoa(end)
	}
	return list, nil
}

func (f *fakeNotion) ListBlockChildren(_ context.Context, id, cursor string) (*model.BlockList, error) {
	f.blockCalls++
	if err := f.errOn["blocks:"+id]; err != nil {
		return nil, err
	}

	all := f.blocks[id]
	start := 0
	if cursor != "" {
		start, _ = strconv.Atoi(cursor)
	}
	end := min(start+f.blockPage, len(all))
	list := &model.BlockList{Results: all[start:end]}
	if end < len(all) {
		list.HasMore = true
		list.NextCursor = strconv.Itoa(end)
	}
	return list, nil
}

func paragraph(id, text string) model.Block {
	return model.Block{ID: id, Type: "paragraph", RichText: runs(text), HasRichText: true}
}

func titledPage(id, title string, extra ...model.Property) model.Page {
	props := model.Properties{{Name: "Name", Value: model.TitleValue{Text: runs(title)}}}
	props = append(props, extra...)
	return model.Page{ID: id, URL: "https://www.notion.so/" + id, Properties: props}
}
