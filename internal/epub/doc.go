// Package epub reads and writes EPUB containers. A Book keeps the package
// document, navigation files and every manifest item exactly as found in the
// archive so that a bilingual copy can be assembled without touching anything
// except the chapters that receive translations.
package epub
