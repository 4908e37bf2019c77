package wpgraphql

import (
	"context"
)

const defaultPostCount = 10

var postsQuery = MustParse("GetPosts", `
query GetPosts($first: Int!) {
  posts(first: $first) {
    nodes {
      title
      date
      categories { nodes { name } }
      excerpt
      uri
      content
    }
  }
}
`)

type Category struct {
	Name string `json:"name"`
}

type Post struct {
	Title      string `json:"title"`
	Date       string `json:"date"`
	Categories struct {
		Nodes []Category `json:"nodes"`
	} `json:"categories"`
	Excerpt string `json:"excerpt"`
	URI     string `json:"uri"`
	Content string `json:"content"`
}

// CategoryNames flattens the category connection.
func (p Post) CategoryNames() []string {
	names := make([]string, 0, len(p.Categories.Nodes))
	for _, node := range p.Categories.Nodes {
		names = append(names, node.Name)
	}
	return names
}

// Posts lists the newest posts; first <= 0 uses a default page size.
func (c *Client) Posts(ctx context.Context, first int) ([]Post, error) {
	if first <= 0 {
		first = defaultPostCount
	}
	var data struct {
		Posts struct {
			Nodes []Post `json:"nodes"`
		} `json:"posts"`
	}
	if err := c.Query(ctx, postsQuery, map[string]any{"first": first}, &data); err != nil {
		return nil, err
	}
	return data.Posts.Nodes, nil
}
