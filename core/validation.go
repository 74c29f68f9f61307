// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package core

import "fmt"

// MaxTitleLength is the upper bound on article title length in bytes.
const MaxTitleLength = 512

// ValidateArticle validates an Article according to domain rules.
//
// Validation rules:
//   - Title must not be empty
//   - Title must not exceed MaxTitleLength bytes
//   - A redirect must not carry categories or images
//
// NOT validated:
//   - Content (empty bodies are legal, e.g. stub pages)
//   - RedirectTo (targets may dangle; resolution happens at read time)
func ValidateArticle(article *Article) error {
	if article == nil {
		return fmt.Errorf("%w: article is nil", ErrInvalidArticle)
	}

	if article.Title == "" {
		return fmt.Errorf("%w: %w", ErrInvalidArticle, ErrEmptyTitle)
	}

	if len(article.Title) > MaxTitleLength {
		return fmt.Errorf("%w: %w (%d bytes)", ErrInvalidArticle, ErrTitleTooLong, len(article.Title))
	}

	if article.IsRedirect() && (len(article.Categories) > 0 || len(article.Images) > 0) {
		return fmt.Errorf("%w: %w", ErrInvalidArticle, ErrRedirectWithRelations)
	}

	return nil
}
