package rod

// Names shared between the Go side and the injected scripts below.
// Keep them in sync by hand; the scripts reference them literally.
const (
	// commandBinding is the window function the page calls to post
	// control commands back to the session.
	commandBinding = "pagecapCommand"

	// overlayID is the DOM id of the injected control overlay.
	overlayID = "pagecap-overlay"
)

// controllerJS installs a small floating control panel on the page. Its
// buttons post commands through the exposed binding. The installer is
// idempotent and waits for the body on documents that are still loading.
const controllerJS = `() => {
	const install = () => {
		if (document.getElementById('pagecap-overlay')) return;
		const bar = document.createElement('div');
		bar.id = 'pagecap-overlay';
		bar.style.cssText = 'position:fixed;top:8px;right:8px;z-index:2147483647;' +
			'display:flex;gap:4px;padding:6px;background:rgba(32,33,36,.92);' +
			'border-radius:6px;font:12px sans-serif;';
		const send = (cmd) => {
			if (window.pagecapCommand) window.pagecapCommand(cmd);
		};
		const add = (label, action) => {
			const b = document.createElement('button');
			b.textContent = label;
			b.style.cssText = 'padding:4px 8px;border:0;border-radius:4px;cursor:pointer;';
			b.addEventListener('click', () => send({action: action}));
			bar.appendChild(b);
		};
		add('Start', 'start');
		add('Pause', 'pause');
		add('Resume', 'resume');
		add('Stop', 'stop');
		document.body.appendChild(bar);
	};
	if (document.body) {
		install();
	} else {
		document.addEventListener('DOMContentLoaded', install);
	}
}`

// toggleOverlayJS shows or hides the control overlay.
const toggleOverlayJS = `(visible) => {
	const el = document.getElementById('pagecap-overlay');
	if (el) el.style.display = visible ? '' : 'none';
}`

// areaSelectJS starts a one-shot drag selection. Releasing the mouse posts
// the selected rectangle as a trim command; Escape cancels.
const areaSelectJS = `() => {
	if (document.getElementById('pagecap-select')) return;
	const layer = document.createElement('div');
	layer.id = 'pagecap-select';
	layer.style.cssText = 'position:fixed;inset:0;z-index:2147483647;' +
		'cursor:crosshair;background:rgba(0,0,0,.25);';
	const box = document.createElement('div');
	box.style.cssText = 'position:fixed;border:1px dashed #fff;' +
		'background:rgba(255,255,255,.2);display:none;';
	layer.appendChild(box);

	const done = () => {
		layer.remove();
		document.removeEventListener('keydown', onKey);
	};
	const onKey = (e) => {
		if (e.key === 'Escape') done();
	};

	let sx = 0, sy = 0, dragging = false;
	const rect = (e) => ({
		x: Math.min(sx, e.clientX),
		y: Math.min(sy, e.clientY),
		width: Math.abs(e.clientX - sx),
		height: Math.abs(e.clientY - sy),
	});
	layer.addEventListener('mousedown', (e) => {
		dragging = true;
		sx = e.clientX;
		sy = e.clientY;
		box.style.display = 'block';
	});
	layer.addEventListener('mousemove', (e) => {
		if (!dragging) return;
		const r = rect(e);
		box.style.left = r.x + 'px';
		box.style.top = r.y + 'px';
		box.style.width = r.width + 'px';
		box.style.height = r.height + 'px';
	});
	layer.addEventListener('mouseup', (e) => {
		const r = rect(e);
		done();
		if (r.width > 0 && r.height > 0 && window.pagecapCommand) {
			window.pagecapCommand({action: 'trim', area: r});
		}
	});
	document.addEventListener('keydown', onKey);
	document.body.appendChild(layer);
}`
