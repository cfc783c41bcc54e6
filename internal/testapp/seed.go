package testapp

import "fmt"

var seedCategories = []string{"Engineering", "Design", "Testing", "DevOps"}

// Seed fills s with sample content: enough blogs for two pages, a few
// projects and images, and the backups their creation produces.
func Seed(s *Store) error {
	for i := 1; i <= 12; i++ {
		_, err := s.Create(Blogs, map[string]string{
			"title":    fmt.Sprintf("Sample Post %d", i),
			"slug":     fmt.Sprintf("sample-post-%d", i),
			"excerpt":  "An example post shipped with the demo panel.",
			"date":     fmt.Sprintf("2025-01-%02d", i),
			"category": seedCategories[i%len(seedCategories)],
			"author":   "Demo Author",
			"readTime": "4",
			"tags":     "demo,sample",
			"content":  "# Sample\n\nBody text.",
		})
		if err != nil {
			return err
		}
	}
	for i := 1; i <= 3; i++ {
		_, err := s.Create(Portfolio, map[string]string{
			"title":       fmt.Sprintf("Sample Project %d", i),
			"description": "A project shipped with the demo panel.",
			"link":        fmt.Sprintf("https://example.com/project-%d", i),
			"techStack":   "Go,HTML",
			"category":    "Web Development",
			"featured":    fmt.Sprint(i == 1),
		})
		if err != nil {
			return err
		}
	}
	for i := 1; i <= 4; i++ {
		_, err := s.Create(Gallery, map[string]string{
			"id":       fmt.Sprintf("sample-image-%d", i),
			"src":      fmt.Sprintf("/images/gallery/sample-%d.png", i),
			"alt":      "Sample image",
			"title":    fmt.Sprintf("Sample Image %d", i),
			"category": "Samples",
		})
		if err != nil {
			return err
		}
	}
	return nil
}
