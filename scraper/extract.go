package scraper

// extractModelsJS runs inside the listing page. It reads the first table's
// body rows and returns [{model, id, context}], deduplicated on the page by
// lowercased id (or name when the id is missing).
const extractModelsJS = `() => {
	const models = [];
	const seen = new Set();

	const table = document.querySelector('table');
	if (!table) {
		return models;
	}

	const text = (el) => el ? ((el.innerText || el.textContent || '').trim()) : '';

	table.querySelectorAll('tbody tr').forEach((row) => {
		try {
			const cells = row.querySelectorAll('td');
			if (cells.length < 4) {
				return;
			}

			const first = cells[0];
			let name = text(first.querySelector('a'));
			const id = text(first.querySelector('code'));
			if (!name && id) {
				name = id;
			}

			const context = text(cells[3].querySelector('span')).replace(/,/g, '').trim();

			const key = (id || name).toLowerCase();
			if (!key || seen.has(key)) {
				return;
			}
			seen.add(key);
			models.push({ model: name || id, id: id, context: context });
		} catch (e) {
			// a malformed row must not abort the whole extraction
		}
	});

	return models;
}`

// bodyTextJS returns the page's visible text. Browsers render a raw JSON
// response as plain text inside the body.
const bodyTextJS = `() => document.body ? (document.body.innerText || document.body.textContent || '') : ''`
