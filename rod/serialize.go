package rod

import (
	"github.com/go-rod/rod"
)

// serializeJS returns the document's outer HTML with open shadow roots
// inlined as declarative <template shadowrootmode="open"> elements, so
// components that render their content into shadow DOM stay extractable.
const serializeJS = `() => {
  const serialize = (node) => {
    if (node.nodeType === Node.TEXT_NODE) {
      const div = document.createElement('div');
      div.textContent = node.textContent;
      return div.innerHTML;
    }
    if (node.nodeType !== Node.ELEMENT_NODE) {
      return '';
    }
    const tag = node.tagName.toLowerCase();
    if (tag === 'script' || tag === 'style') {
      return node.outerHTML;
    }
    let attrs = '';
    for (const a of node.attributes) {
      attrs += ' ' + a.name + '="' + a.value.replace(/&/g, '&amp;').replace(/"/g, '&quot;') + '"';
    }
    let inner = '';
    if (node.shadowRoot) {
      inner += '<template shadowrootmode="open">';
      for (const child of node.shadowRoot.childNodes) inner += serialize(child);
      inner += '</template>';
    }
    for (const child of node.childNodes) inner += serialize(child);
    return '<' + tag + attrs + '>' + inner + '</' + tag + '>';
  };
  return '<!DOCTYPE html>' + serialize(document.documentElement);
}`

// serializeHTML returns the page HTML including shadow DOM content, falling
// back to the plain document HTML if evaluation fails.
func serializeHTML(page *rod.Page) (string, error) {
	res, err := page.Eval(serializeJS)
	if err == nil && res.Value.Str() != "" {
		return res.Value.Str(), nil
	}
	return page.HTML()
}
